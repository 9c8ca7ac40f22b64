package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray represents a ray in 3D space with origin and direction.
// Direction does not have to be normalized.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// NewRay creates a ray from origin along direction.
func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point Origin + t*Direction.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IsDegenerate reports whether the ray has a zero-length direction.
func (r Ray) IsDegenerate() bool {
	return r.Direction[0] == 0 && r.Direction[1] == 0 && r.Direction[2] == 0
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the ray parameter of the entry point and whether the box is hit.
// If the ray starts inside the box, the exit parameter is returned.
func (r Ray) IntersectAABB(box AABB) (t float64, hit bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := r.Origin[axis]
		d := r.Direction[axis]
		if d == 0 {
			// Parallel to this slab: must already be inside it
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}

		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle intersects the ray with a triangle regardless of winding.
// Returns the ray parameter of the hit. Rays lying in the triangle's plane and
// hits behind the origin are misses.
func (r Ray) IntersectTriangle(tri Triangle) (t float64, hit bool) {
	edge1 := tri.B.Sub(tri.A)
	edge2 := tri.C.Sub(tri.A)
	normal := edge1.Cross(edge2)

	ddn := r.Direction.Dot(normal)
	var sign float64
	switch {
	case ddn > 0:
		sign = 1
	case ddn < 0:
		sign = -1
		ddn = -ddn
	default:
		return 0, false
	}

	diff := r.Origin.Sub(tri.A)
	ddqxe2 := sign * r.Direction.Dot(diff.Cross(edge2))
	if ddqxe2 < 0 {
		return 0, false
	}
	dde1xq := sign * r.Direction.Dot(edge1.Cross(diff))
	if dde1xq < 0 {
		return 0, false
	}
	if ddqxe2+dde1xq > ddn {
		return 0, false
	}

	qdn := -sign * diff.Dot(normal)
	if qdn < 0 {
		return 0, false
	}
	return qdn / ddn, true
}

// TriangleDistance returns the distance from the ray origin to its hit on tri.
func (r Ray) TriangleDistance(tri Triangle) (float64, bool) {
	t, ok := r.IntersectTriangle(tri)
	if !ok {
		return 0, false
	}
	return r.Direction.Mul(t).Len(), true
}
