// Package geom provides the geometry primitives used by the octree and the baker:
// rays, axis-aligned boxes and triangles in float64 world space.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns a box that contains nothing. Expanding it by a point
// yields a degenerate box around that point.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// NewAABB creates an AABB from two corners, ordering each axis.
func NewAABB(a, b mgl64.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// IsEmpty reports whether the box has a negative extent on any axis.
func (b AABB) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint returns the box grown to include p.
func (b AABB) ExpandByPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and other.
func (b AABB) Union(other AABB) AABB {
	return b.ExpandByPoint(other.Min).ExpandByPoint(other.Max)
}

// Size returns the extent of the box on each axis.
func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// ContainsPoint reports whether p lies inside or on the boundary of the box.
func (b AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Intersects reports whether two boxes overlap or touch.
func (b AABB) Intersects(other AABB) bool {
	return !(other.Max[0] < b.Min[0] || other.Min[0] > b.Max[0] ||
		other.Max[1] < b.Min[1] || other.Min[1] > b.Max[1] ||
		other.Max[2] < b.Min[2] || other.Min[2] > b.Max[2])
}

// IntersectsTriangle tests the box against a triangle with the separating axis
// theorem: the three box face normals, the triangle normal and the nine
// edge cross products.
func (b AABB) IntersectsTriangle(t Triangle) bool {
	if b.IsEmpty() {
		return false
	}

	center := b.Center()
	extents := b.Max.Sub(center)

	v0 := t.A.Sub(center)
	v1 := t.B.Sub(center)
	v2 := t.C.Sub(center)

	f0 := v1.Sub(v0)
	f1 := v2.Sub(v1)
	f2 := v0.Sub(v2)

	axes := [13]mgl64.Vec3{
		{0, -f0[2], f0[1]}, {0, -f1[2], f1[1]}, {0, -f2[2], f2[1]},
		{f0[2], 0, -f0[0]}, {f1[2], 0, -f1[0]}, {f2[2], 0, -f2[0]},
		{-f0[1], f0[0], 0}, {-f1[1], f1[0], 0}, {-f2[1], f2[0], 0},
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		f0.Cross(f1),
	}

	for _, axis := range axes {
		if separated(axis, v0, v1, v2, extents) {
			return false
		}
	}
	return true
}

// separated reports whether axis separates the (box-centred) triangle from a
// box with the given half extents.
func separated(axis, v0, v1, v2, extents mgl64.Vec3) bool {
	r := extents[0]*math.Abs(axis[0]) + extents[1]*math.Abs(axis[1]) + extents[2]*math.Abs(axis[2])
	p0 := v0.Dot(axis)
	p1 := v1.Dot(axis)
	p2 := v2.Dot(axis)
	lo := math.Min(p0, math.Min(p1, p2))
	hi := math.Max(p0, math.Max(p1, p2))
	return math.Max(-hi, lo) > r
}
