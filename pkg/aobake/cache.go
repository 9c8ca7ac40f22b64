package aobake

import "github.com/go-gl/mathgl/mgl64"

// cacheKey matches vertices exactly; nearly equal positions are distinct.
type cacheKey struct {
	position mgl64.Vec3
	normal   mgl64.Vec3
}

type vertexCache map[cacheKey]float64

// merge copies entries of other that are missing from c.
func (c vertexCache) merge(other vertexCache) {
	for k, v := range other {
		if _, ok := c[k]; !ok {
			c[k] = v
		}
	}
}
