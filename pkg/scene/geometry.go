// Package scene provides the mesh hierarchy consumed by the baker: nodes with
// local transforms, world matrices and flat vertex buffers.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/aobake/pkg/geom"
)

// Geometry errors.
var (
	ErrMissingPositions = errors.New("geometry has no position buffer")
	ErrMissingNormals   = errors.New("geometry has no normal buffer")
	ErrBufferMismatch   = errors.New("position and normal buffers differ in length")
	ErrNotTriangles     = errors.New("vertex count is not a multiple of 3")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// Geometry holds the flat vertex buffers of one mesh: 3 floats per vertex.
// When Indices is nil the buffers are a non-indexed triangle list.
type Geometry struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32

	// Colors is the baked per-vertex color buffer (3 floats per vertex).
	Colors []float32

	// NeedsUpdate marks buffers changed since the host last uploaded them.
	NeedsUpdate bool
}

// VertexCount returns the number of vertices in the position buffer.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of triangles described by the geometry.
func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// Clone returns a deep copy of the geometry.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		Positions:   cloneOrNil(g.Positions),
		Normals:     cloneOrNil(g.Normals),
		Indices:     cloneOrNil(g.Indices),
		Colors:      cloneOrNil(g.Colors),
		NeedsUpdate: g.NeedsUpdate,
	}
}

func cloneOrNil[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}

// Validate checks that the geometry is a usable non-indexed triangle list.
func (g *Geometry) Validate() error {
	if len(g.Positions) == 0 {
		return ErrMissingPositions
	}
	if len(g.Normals) == 0 {
		return ErrMissingNormals
	}
	if len(g.Positions) != len(g.Normals) {
		return fmt.Errorf("%w: %d positions, %d normals", ErrBufferMismatch, len(g.Positions), len(g.Normals))
	}
	if len(g.Positions)%9 != 0 {
		return fmt.Errorf("%w: %d floats", ErrNotTriangles, len(g.Positions))
	}
	return nil
}

// ToNonIndexed expands an indexed geometry into a triangle list. A
// non-indexed geometry is returned unchanged.
func (g *Geometry) ToNonIndexed() (*Geometry, error) {
	if g.Indices == nil {
		return g, nil
	}
	if len(g.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrNotTriangles, len(g.Indices))
	}

	count := g.VertexCount()
	hasNormals := len(g.Normals) == len(g.Positions)
	hasColors := len(g.Colors) == len(g.Positions)

	out := &Geometry{
		Positions:   make([]float32, 0, len(g.Indices)*3),
		NeedsUpdate: true,
	}
	if hasNormals {
		out.Normals = make([]float32, 0, len(g.Indices)*3)
	}
	if hasColors {
		out.Colors = make([]float32, 0, len(g.Indices)*3)
	}

	for _, idx := range g.Indices {
		i := int(idx)
		if i >= count {
			return nil, fmt.Errorf("%w: %d >= %d vertices", ErrIndexOutOfRange, i, count)
		}
		out.Positions = append(out.Positions, g.Positions[i*3:i*3+3]...)
		if hasNormals {
			out.Normals = append(out.Normals, g.Normals[i*3:i*3+3]...)
		}
		if hasColors {
			out.Colors = append(out.Colors, g.Colors[i*3:i*3+3]...)
		}
	}
	return out, nil
}

// ComputeFlatNormals replaces the normal buffer with per-face normals of a
// non-indexed triangle list.
func (g *Geometry) ComputeFlatNormals() {
	g.Normals = make([]float32, len(g.Positions))
	for tri := 0; tri+2 < g.VertexCount(); tri += 3 {
		t := geom.Triangle{
			A: geom.Vec3At(g.Positions, tri),
			B: geom.Vec3At(g.Positions, tri+1),
			C: geom.Vec3At(g.Positions, tri+2),
		}
		n := t.Normal()
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		for v := tri; v < tri+3; v++ {
			putVec3(g.Normals, v, n)
		}
	}
	g.NeedsUpdate = true
}

// SmoothNormals averages normals of vertices that share a position, within
// epsilon. This reduces the faceted look of low-poly meshes.
func (g *Geometry) SmoothNormals(epsilon float64) {
	if len(g.Normals) != len(g.Positions) || epsilon <= 0 {
		return
	}

	// Group vertices by quantized position for O(n) lookup
	groups := make(map[[3]int64][]int)
	for i := 0; i < g.VertexCount(); i++ {
		p := geom.Vec3At(g.Positions, i)
		key := [3]int64{
			int64(math.Round(p[0] / epsilon)),
			int64(math.Round(p[1] / epsilon)),
			int64(math.Round(p[2] / epsilon)),
		}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		var sum mgl64.Vec3
		for _, i := range idxs {
			sum = sum.Add(geom.Vec3At(g.Normals, i))
		}
		if l := sum.Len(); l > 0 {
			sum = sum.Mul(1 / l)
		}
		for _, i := range idxs {
			putVec3(g.Normals, i, sum)
		}
	}
	g.NeedsUpdate = true
}

// Bounds returns the local-space bounding box of the positions.
func (g *Geometry) Bounds() geom.AABB {
	box := geom.EmptyAABB()
	for i := 0; i < g.VertexCount(); i++ {
		box = box.ExpandByPoint(geom.Vec3At(g.Positions, i))
	}
	return box
}

// ColorsRGBA8 encodes the color buffer as opaque RGBA bytes, clamping each
// channel to [0, 1] first. Returns nil when there are no colors.
func (g *Geometry) ColorsRGBA8() []uint8 {
	if len(g.Colors) == 0 {
		return nil
	}
	out := make([]uint8, len(g.Colors)/3*4)
	for v := 0; v < len(g.Colors)/3; v++ {
		for c := 0; c < 3; c++ {
			x := math.Min(1, math.Max(0, float64(g.Colors[v*3+c])))
			out[v*4+c] = uint8(math.Round(x * 255))
		}
		out[v*4+3] = 255
	}
	return out
}

func putVec3(buf []float32, i int, v mgl64.Vec3) {
	buf[i*3] = float32(v[0])
	buf[i*3+1] = float32(v[1])
	buf[i*3+2] = float32(v[2])
}
