package aobake

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/aobake/pkg/scene"
)

var up = mgl64.Vec3{0, 1, 0}

// linear returns the stock parameters with a linear curve.
func linear() Params {
	p := DefaultParams()
	p.Gamma = 1
	return p
}

func newBaker(t *testing.T, root *scene.Node, p Params) *Baker {
	t.Helper()
	b, err := New(root, p)
	require.NoError(t, err)
	return b
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := Params{SampleRate: 0, Gamma: -1, Exposure: math.NaN(), Distance: 0, Epsilon: -1}
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 5)
	for _, e := range errs {
		assert.ErrorIs(t, e, ErrInvalidParameter)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	p := DefaultParams()
	p.Distance = -5
	_, err = New(scene.NewNode("root"), p)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestNewFillsEpsilon(t *testing.T) {
	b := newBaker(t, scene.NewNode("root"), Params{SampleRate: 1, Gamma: 1, Exposure: 1, Distance: 1})
	assert.Equal(t, DefaultEpsilon, b.Params().Epsilon)
	assert.Equal(t, StateConstructed, b.State())
}

func TestTinyEpsilonIsKept(t *testing.T) {
	p := DefaultParams()
	p.Epsilon = math.SmallestNonzeroFloat64
	b := newBaker(t, scene.NewNode("root"), p)
	assert.Equal(t, math.SmallestNonzeroFloat64, b.Params().Epsilon)
}

func TestDirections(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{1, 8},
		{2, 26},
		{3, 56},
		{8, 2*81 + 2*63 + 2*49},
		// Coordinates 0, 0.4 and 0.8: no far edge, two inner values
		{2.5, 2*9 + 2*2*3 + 2*2*2},
		{1.5, 2*4 + 2*1*2 + 2*1*1},
	}

	for _, tt := range tests {
		dirs := Directions(tt.rate)
		require.Len(t, dirs, tt.want, "rate %v", tt.rate)
		assert.Equal(t, tt.want, DirectionCount(tt.rate))

		var sum mgl64.Vec3
		for _, d := range dirs {
			assert.InDelta(t, 1, d.Len(), 1e-12)
			sum = sum.Add(d)
		}
		if tt.rate == math.Trunc(tt.rate) {
			assert.True(t, sum.ApproxEqualThreshold(mgl64.Vec3{}, 1e-9), "rate %v not symmetric: %v", tt.rate, sum)
		}
	}

	// A fractional rate keeps the near edge but never reaches x = 1
	for _, d := range Directions(2.5) {
		assert.False(t, d.ApproxEqual(mgl64.Vec3{1, 1, 1}.Normalize()))
	}

	assert.Nil(t, Directions(0))
	assert.Nil(t, Directions(0.5))
	assert.Nil(t, Directions(math.NaN()))
	assert.Equal(t, Directions(3), Directions(3))
}

func TestEmptySceneIsFullyOpen(t *testing.T) {
	b := newBaker(t, scene.NewNode("root"), DefaultParams())
	require.NoError(t, b.BuildIndex())

	assert.Equal(t, 1.0, b.SampleVertex(mgl64.Vec3{}, up))
	assert.Equal(t, 1.0, b.SampleVertex(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}))
}

func TestGeometryBeyondHorizonIsIgnored(t *testing.T) {
	far := scene.NewMesh("far", scene.NewPlane(5000, 5000, 1))
	far.Position = mgl64.Vec3{0, 1500, 0}
	root := scene.NewNode("root").Add(far)

	b := newBaker(t, root, linear())
	require.NoError(t, b.BuildIndex())
	assert.Equal(t, 1.0, b.SampleVertex(mgl64.Vec3{}, up))
}

func TestIsolatedQuad(t *testing.T) {
	quad := scene.NewMesh("quad", scene.NewQuad(1))
	root := scene.NewNode("root").Add(quad)

	b := newBaker(t, root, linear())
	require.NoError(t, b.ApplyAO())

	colors := quad.Geometry.Colors
	require.Len(t, colors, 18)
	for i, c := range colors {
		assert.InDelta(t, 1.0, c, 1e-9, "channel %d", i)
	}
}

// occluded bakes a vertex at the origin facing +Y under a wide plane at
// height h, the plane hanging from a translated parent.
func occluded(t *testing.T, h float64, p Params) float64 {
	t.Helper()
	lid := scene.NewNode("lid")
	lid.Position = mgl64.Vec3{0, h, 0}
	lid.Add(scene.NewMesh("plane", scene.NewPlane(40, 40, 2)))
	root := scene.NewNode("root").Add(lid)

	b := newBaker(t, root, p)
	require.NoError(t, b.BuildIndex())
	return b.SampleVertex(mgl64.Vec3{}, up)
}

// expectedUnderPlane evaluates the falloff analytically for an infinite plane
// at height h above an up-facing vertex.
func expectedUnderPlane(h float64, p Params) float64 {
	dirs := Directions(p.SampleRate)
	var open float64
	for _, d := range dirs {
		if d.Dot(up) < 0 {
			open++
			continue
		}
		dist := h / d[1]
		open += math.Min(1, dist*dist/p.Distance)
	}
	return open / float64(len(dirs))
}

func TestOccluderPlane(t *testing.T) {
	p := linear()

	var prev = 1.0
	for _, h := range []float64{0.5, 0.25, 0.1} {
		got := occluded(t, h, p)
		assert.Less(t, got, 1.0, "h=%v", h)
		assert.Less(t, got, prev, "occlusion must grow as the plane approaches, h=%v", h)
		assert.InDelta(t, expectedUnderPlane(h, p), got, 1e-6, "h=%v", h)
		prev = got
	}
}

func TestFractionalSampleRate(t *testing.T) {
	p := linear()
	p.SampleRate = 2.5
	require.NoError(t, p.Validate())

	got := occluded(t, 0.5, p)
	assert.Less(t, got, 1.0)
	assert.InDelta(t, expectedUnderPlane(0.5, p), got, 1e-6)
}

func TestLargerDistanceBrightens(t *testing.T) {
	near := linear()
	far := linear()
	far.Distance = 10

	assert.Greater(t, occluded(t, 0.5, far), occluded(t, 0.5, near))
}

func TestGeometryBehindSurfaceCountsAsOpen(t *testing.T) {
	floor := scene.NewMesh("floor", scene.NewPlane(10, 10, 1))
	floor.Position = mgl64.Vec3{0, -0.1, 0}
	root := scene.NewNode("root").Add(floor)

	b := newBaker(t, root, DefaultParams())
	require.NoError(t, b.BuildIndex())
	assert.Equal(t, 1.0, b.SampleVertex(mgl64.Vec3{}, up))
}

func TestEnclosedPointIsDark(t *testing.T) {
	root := scene.NewNode("root").Add(scene.NewMesh("cell", scene.NewBox(0.2, 0.2, 0.2)))

	b := newBaker(t, root, linear())
	require.NoError(t, b.BuildIndex())

	// A zero normal casts every direction
	raw := b.SampleVertex(mgl64.Vec3{}, mgl64.Vec3{})
	assert.Less(t, raw, 0.05)
	assert.GreaterOrEqual(t, raw, 0.0)
}

func TestExposureAndGamma(t *testing.T) {
	p := DefaultParams()
	p.Exposure = 0.5
	p.Gamma = 2
	b := newBaker(t, scene.NewNode("root"), p)
	require.NoError(t, b.BuildIndex())

	assert.Equal(t, 0.25, b.SampleVertex(mgl64.Vec3{}, up))

	// Results above 1 are left for the host to clamp
	p.Exposure = 2
	p.Gamma = 1
	b = newBaker(t, scene.NewNode("root"), p)
	assert.Equal(t, 2.0, b.SampleVertex(mgl64.Vec3{}, up))
}

func TestSampleVertexCache(t *testing.T) {
	b := newBaker(t, scene.NewNode("root").Add(scene.NewMesh("cell", scene.NewBox(1, 1, 1))), linear())
	require.NoError(t, b.BuildIndex())

	pos := mgl64.Vec3{0.1, 0.2, 0.3}
	first := b.SampleVertex(pos, up)
	rays := b.Stats().Rays
	require.Positive(t, rays)

	second := b.SampleVertex(pos, up)
	assert.Equal(t, first, second)
	assert.Equal(t, rays, b.Stats().Rays, "cached sample must not cast rays")
	assert.Equal(t, 1, b.Stats().CacheHits)
	assert.Equal(t, 2, b.Stats().Vertices)

	// Exact-match only
	b.SampleVertex(mgl64.Vec3{0.1 + 1e-12, 0.2, 0.3}, up)
	assert.Greater(t, b.Stats().Rays, rays)
}

func TestApplyAOClonesGeometry(t *testing.T) {
	src := &scene.Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1},
		Normals:   []float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
		Indices:   []uint32{0, 2, 1, 0, 3, 2},
	}
	mesh := scene.NewMesh("mesh", src)
	root := scene.NewNode("root").Add(mesh)

	b := newBaker(t, root, DefaultParams())
	require.NoError(t, b.ApplyAO())

	assert.Nil(t, src.Colors, "source geometry must not be touched")
	assert.NotSame(t, src, mesh.Geometry)

	baked := mesh.Geometry
	assert.Nil(t, baked.Indices)
	assert.Len(t, baked.Colors, 18)
	assert.True(t, baked.NeedsUpdate)
	for v := 0; v < baked.VertexCount(); v++ {
		assert.Equal(t, baked.Colors[v*3], baked.Colors[v*3+1])
		assert.Equal(t, baked.Colors[v*3], baked.Colors[v*3+2])
	}
}

func TestStateTransitions(t *testing.T) {
	root := scene.NewNode("root").Add(scene.NewMesh("quad", scene.NewQuad(1)))
	b := newBaker(t, root, DefaultParams())

	assert.Equal(t, StateConstructed, b.State())
	require.NoError(t, b.BuildIndex())
	assert.Equal(t, StateIndexed, b.State())
	assert.Equal(t, 2, b.Stats().Triangles)

	require.NoError(t, b.ApplyAO())
	assert.Equal(t, StateBaked, b.State())
	assert.Equal(t, "baked", b.State().String())

	// Baking again reuses the cache
	hits := b.Stats().CacheHits
	require.NoError(t, b.ApplyAO())
	assert.Equal(t, hits+6, b.Stats().CacheHits)
	assert.Equal(t, 1, b.Stats().Meshes)
}

func TestInvalidGeometry(t *testing.T) {
	tests := []struct {
		name  string
		geo   *scene.Geometry
		cause error
	}{
		{"missing normals", &scene.Geometry{Positions: make([]float32, 9)}, scene.ErrMissingNormals},
		{"mismatch", &scene.Geometry{Positions: make([]float32, 9), Normals: make([]float32, 3)}, scene.ErrBufferMismatch},
		{"bad index", &scene.Geometry{Positions: make([]float32, 9), Normals: make([]float32, 9), Indices: []uint32{0, 1, 9}}, scene.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := scene.NewNode("root").Add(scene.NewMesh("broken", tt.geo))
			b := newBaker(t, root, DefaultParams())

			err := b.ApplyAO()
			assert.ErrorIs(t, err, ErrInvalidGeometry)
			assert.ErrorIs(t, err, tt.cause)
			assert.Contains(t, err.Error(), "root/broken")
		})
	}
}

// clutter builds a floor with a few transformed boxes on it.
func clutter() *scene.Node {
	root := scene.NewNode("root")
	root.Add(scene.NewMesh("floor", scene.NewPlane(8, 8, 4)))

	for i, pos := range []mgl64.Vec3{{-2, 0.5, 0}, {1, 1, 1}, {2, 0.25, -2}, {0, 0.5, 2.5}} {
		box := scene.NewMesh("box", scene.NewBox(1, 1+float64(i)*0.5, 1))
		box.Name = string(rune('a' + i))
		box.Position = pos
		box.SetRotation(mgl64.Vec3{0, 1, 0}, float64(i)*20)
		root.Add(box)
	}
	return root
}

func colorsByPath(root *scene.Node) map[string][]float32 {
	out := make(map[string][]float32)
	for _, m := range root.Meshes() {
		out[m.Path()] = m.Geometry.Colors
	}
	return out
}

func TestApplyParallelMatchesSerial(t *testing.T) {
	serialRoot := clutter()
	serial := newBaker(t, serialRoot, DefaultParams())
	require.NoError(t, serial.ApplyAO())

	parallelRoot := clutter()
	parallel := newBaker(t, parallelRoot, DefaultParams())
	require.NoError(t, parallel.ApplyParallel(context.Background(), 3))

	assert.Equal(t, colorsByPath(serialRoot), colorsByPath(parallelRoot))
	assert.Equal(t, StateBaked, parallel.State())
	assert.Equal(t, serial.Stats().Vertices, parallel.Stats().Vertices)

	// Worker caches are merged back
	rays := parallel.Stats().Rays
	require.NoError(t, parallel.ApplyAO())
	assert.Equal(t, rays, parallel.Stats().Rays)
}

func TestApplyParallelMoreWorkersThanMeshes(t *testing.T) {
	b := newBaker(t, scene.NewNode("root"), DefaultParams())
	require.NoError(t, b.ApplyParallel(context.Background(), 8))

	root := scene.NewNode("root").Add(scene.NewMesh("quad", scene.NewQuad(1)))
	b = newBaker(t, root, DefaultParams())
	require.NoError(t, b.ApplyParallel(context.Background(), 0))
	assert.Len(t, root.Meshes()[0].Geometry.Colors, 18)
}

func TestApplyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBaker(t, clutter(), DefaultParams())
	err := b.ApplyAOContext(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateIndexed, b.State())

	err = b.ApplyParallel(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{2.5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp01(tt.in))
	}
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	root := scene.NewNode("root").Add(scene.NewMesh("quad", scene.NewQuad(1)))

	b, err := New(root, DefaultParams(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, b.ApplyAO())

	built := logs.FilterMessage("octree built").All()
	require.Len(t, built, 1)
	assert.EqualValues(t, 2, built[0].ContextMap()["triangles"])
	assert.Len(t, logs.FilterMessage("mesh baked").All(), 1)
	assert.Len(t, logs.FilterMessage("bake complete").All(), 1)
}
