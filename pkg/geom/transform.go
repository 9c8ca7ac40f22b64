package geom

import "github.com/go-gl/mathgl/mgl64"

// NormalMatrix returns the inverse transpose of the upper 3x3 of m.
// A singular matrix yields the zero matrix.
func NormalMatrix(m mgl64.Mat4) mgl64.Mat3 {
	return m.Mat3().Inv().Transpose()
}

// TransformPoint transforms a point by m, including translation and the
// perspective divide.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, m)
}

// TransformNormal transforms a normal by a normal matrix. The result is not
// renormalized.
func TransformNormal(nm mgl64.Mat3, n mgl64.Vec3) mgl64.Vec3 {
	return nm.Mul3x1(n)
}

// Vec3At reads the i-th vertex of a flat float32 buffer (3 floats per vertex).
func Vec3At(buf []float32, i int) mgl64.Vec3 {
	return mgl64.Vec3{float64(buf[i*3]), float64(buf[i*3+1]), float64(buf[i*3+2])}
}
