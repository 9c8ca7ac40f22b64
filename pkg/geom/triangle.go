package geom

import "github.com/go-gl/mathgl/mgl64"

// Triangle is three world-space vertex positions.
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Centroid returns the average of the three vertices.
func (t Triangle) Centroid() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// Inflate scales the triangle about its centroid by factor.
// A factor slightly above 1 closes hairline gaps along shared edges.
func (t Triangle) Inflate(factor float64) Triangle {
	c := t.Centroid()
	grow := func(v mgl64.Vec3) mgl64.Vec3 {
		return v.Sub(c).Mul(factor).Add(c)
	}
	return Triangle{A: grow(t.A), B: grow(t.B), C: grow(t.C)}
}

// Bounds returns the bounding box of the triangle.
func (t Triangle) Bounds() AABB {
	return EmptyAABB().ExpandByPoint(t.A).ExpandByPoint(t.B).ExpandByPoint(t.C)
}

// Normal returns the unnormalized face normal (B-A)x(C-A).
func (t Triangle) Normal() mgl64.Vec3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A))
}

// Area returns the surface area of the triangle.
func (t Triangle) Area() float64 {
	return t.Normal().Len() * 0.5
}
