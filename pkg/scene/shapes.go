package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// NewQuad returns a size x size square in the XZ plane, centred on the
// origin and facing +Y, as a non-indexed triangle list.
func NewQuad(size float64) *Geometry {
	return NewPlane(size, size, 1)
}

// NewPlane returns a width x depth grid in the XZ plane facing +Y, split into
// segments x segments cells of two triangles each.
func NewPlane(width, depth float64, segments int) *Geometry {
	if segments < 1 {
		segments = 1
	}
	cw := width / float64(segments)
	cd := depth / float64(segments)
	u := mgl64.Vec3{cw / 2, 0, 0}
	v := mgl64.Vec3{0, 0, -cd / 2}

	var b builder
	for i := 0; i < segments; i++ {
		for j := 0; j < segments; j++ {
			center := mgl64.Vec3{
				-width/2 + cw*(float64(i)+0.5),
				0,
				-depth/2 + cd*(float64(j)+0.5),
			}
			b.face(center, u, v)
		}
	}
	return b.geometry()
}

// NewBox returns an axis-aligned box centred on the origin with outward
// facing normals.
func NewBox(width, height, depth float64) *Geometry {
	hw, hh, hd := width/2, height/2, depth/2

	var b builder
	b.face(mgl64.Vec3{hw, 0, 0}, mgl64.Vec3{0, 0, -hd}, mgl64.Vec3{0, hh, 0})
	b.face(mgl64.Vec3{-hw, 0, 0}, mgl64.Vec3{0, 0, hd}, mgl64.Vec3{0, hh, 0})
	b.face(mgl64.Vec3{0, hh, 0}, mgl64.Vec3{hw, 0, 0}, mgl64.Vec3{0, 0, -hd})
	b.face(mgl64.Vec3{0, -hh, 0}, mgl64.Vec3{hw, 0, 0}, mgl64.Vec3{0, 0, hd})
	b.face(mgl64.Vec3{0, 0, hd}, mgl64.Vec3{hw, 0, 0}, mgl64.Vec3{0, hh, 0})
	b.face(mgl64.Vec3{0, 0, -hd}, mgl64.Vec3{-hw, 0, 0}, mgl64.Vec3{0, hh, 0})
	return b.geometry()
}

// builder accumulates flat-shaded quads.
type builder struct {
	positions []float32
	normals   []float32
}

// face adds the rectangle center±u±v as two triangles wound so that their
// normal points along u x v.
func (b *builder) face(center, u, v mgl64.Vec3) {
	n := u.Cross(v).Normalize()
	corners := [4]mgl64.Vec3{
		center.Sub(u).Sub(v),
		center.Add(u).Sub(v),
		center.Add(u).Add(v),
		center.Sub(u).Add(v),
	}
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		p := corners[i]
		b.positions = append(b.positions, float32(p[0]), float32(p[1]), float32(p[2]))
		b.normals = append(b.normals, float32(n[0]), float32(n[1]), float32(n[2]))
	}
}

func (b *builder) geometry() *Geometry {
	return &Geometry{Positions: b.positions, Normals: b.normals}
}
