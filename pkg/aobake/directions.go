package aobake

import "github.com/go-gl/mathgl/mgl64"

// Directions returns the sample direction set for rate: unit vectors through
// a grid on the faces of the cube [-1,1]^3, in a fixed order. Grid
// coordinates step by 1/rate from 0 while they stay <= 1, so a fractional
// rate stops short of the far edge. For whole rates the set is symmetric
// about the origin. Some edge directions appear twice and so carry double
// weight. It returns nil for rate < 1.
func Directions(rate float64) []mgl64.Vec3 {
	if !(rate >= 1) {
		return nil
	}

	steps := int(rate)
	dirs := make([]mgl64.Vec3, 0, DirectionCount(rate))
	for i := 0; i <= steps; i++ {
		x := float64(i) / rate
		sx := (x - 0.5) * 2
		innerX := i > 0 && x < 1

		for j := 0; j <= steps; j++ {
			y := float64(j) / rate
			sy := (y - 0.5) * 2
			innerY := j > 0 && y < 1

			dirs = append(dirs,
				mgl64.Vec3{sx, sy, 1}.Normalize(),
				mgl64.Vec3{sx, sy, -1}.Normalize(),
			)
			if !innerX {
				continue
			}
			dirs = append(dirs,
				mgl64.Vec3{sx, 1, sy}.Normalize(),
				mgl64.Vec3{sx, -1, sy}.Normalize(),
			)
			if innerY {
				dirs = append(dirs,
					mgl64.Vec3{1, sx, sy}.Normalize(),
					mgl64.Vec3{-1, sx, sy}.Normalize(),
				)
			}
		}
	}
	return dirs
}

// DirectionCount returns len(Directions(rate)).
func DirectionCount(rate float64) int {
	if !(rate >= 1) {
		return 0
	}
	steps := int(rate)
	n := steps + 1
	// Coordinates strictly between 0 and 1
	inner := steps
	if float64(steps)/rate >= 1 {
		inner--
	}
	return 2*n*n + 2*inner*n + 2*inner*inner
}
