// Package aobake bakes per-vertex ambient occlusion into a scene graph.
//
// A Baker indexes every mesh triangle in an octree, then casts a fixed set of
// sample rays from each vertex. Hit distances are folded into one scalar per
// vertex which is stored as a grey vertex color.
package aobake

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/aobake/pkg/geom"
	"github.com/Faultbox/aobake/pkg/octree"
	"github.com/Faultbox/aobake/pkg/scene"
)

// State is the lifecycle stage of a Baker.
type State int

const (
	StateConstructed State = iota
	StateIndexed
	StateBaked
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateIndexed:
		return "indexed"
	case StateBaked:
		return "baked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats counts the work done by a Baker.
type Stats struct {
	Meshes    int // meshes baked by the last apply
	Triangles int // triangles in the current index
	Vertices  int // SampleVertex calls, cached or not
	CacheHits int
	Rays      int // rays cast against the index
}

func (s *Stats) add(o Stats) {
	s.Vertices += o.Vertices
	s.CacheHits += o.CacheHits
	s.Rays += o.Rays
}

// Option configures a Baker.
type Option func(*Baker)

// WithLogger sets the logger used for build and progress messages.
func WithLogger(l *zap.Logger) Option {
	return func(b *Baker) {
		if l != nil {
			b.log = l
		}
	}
}

// Baker computes ambient occlusion for the meshes under a root node.
// A Baker is not safe for concurrent use; see ApplyParallel.
type Baker struct {
	root  *scene.Node
	state State
	log   *zap.Logger

	sampler
	meshes    int
	triangles int
}

// New creates a baker for the hierarchy under root.
func New(root *scene.Node, params Params, opts ...Option) (*Baker, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root node", ErrInvalidGeometry)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params = params.withDefaults()

	b := &Baker{
		root: root,
		log:  zap.NewNop(),
		sampler: sampler{
			index:  octree.New(),
			dirs:   Directions(params.SampleRate),
			params: params,
			cache:  make(vertexCache),
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Params returns the effective parameters.
func (b *Baker) Params() Params { return b.params }

// State returns the lifecycle stage.
func (b *Baker) State() State { return b.state }

// Index returns the octree built by the last BuildIndex.
func (b *Baker) Index() *octree.Octree { return b.index }

// Stats returns the counters accumulated so far.
func (b *Baker) Stats() Stats {
	st := b.stats
	st.Meshes = b.meshes
	st.Triangles = b.triangles
	return st
}

// BuildIndex updates world transforms and indexes every mesh triangle.
// Indexed geometry is replaced by its non-indexed expansion.
func (b *Baker) BuildIndex() error {
	start := time.Now()
	b.root.UpdateWorldMatrix()

	eps := b.params.Epsilon
	index := octree.New()
	for _, node := range b.root.Meshes() {
		g, err := prepareGeometry(node)
		if err != nil {
			return err
		}

		world := node.WorldMatrix()
		nm := node.NormalMatrix()
		for v := 0; v < g.VertexCount(); v += 3 {
			var corners [3]mgl64.Vec3
			for k := range corners {
				p := geom.TransformPoint(world, geom.Vec3At(g.Positions, v+k))
				n := geom.TransformNormal(nm, geom.Vec3At(g.Normals, v+k))
				corners[k] = p.Sub(n.Mul(eps))
			}
			tri := geom.Triangle{A: corners[0], B: corners[1], C: corners[2]}
			index.AddTriangle(tri.Inflate(1 + eps*10))
		}
	}
	index.Build()

	b.index = index
	b.triangles = index.Len()
	b.state = StateIndexed

	st := index.Stats()
	b.log.Debug("octree built",
		zap.Int("triangles", index.Len()),
		zap.Int("nodes", st.Nodes),
		zap.Int("leaves", st.Leaves),
		zap.Int("max_depth", st.MaxDepth),
		zap.Int("references", st.References),
		zap.Duration("took", time.Since(start)))
	return nil
}

// prepareGeometry expands indexed geometry in place on the node and checks
// its buffers.
func prepareGeometry(node *scene.Node) (*scene.Geometry, error) {
	g := node.Geometry
	if g.Indices != nil {
		flat, err := g.ToNonIndexed()
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w: %w", node.Path(), ErrInvalidGeometry, err)
		}
		node.Geometry = flat
		g = flat
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w: %w", node.Path(), ErrInvalidGeometry, err)
	}
	return g, nil
}

// SampleVertex returns the occlusion scalar for a world-space vertex:
// (raw * Exposure)^Gamma, where raw is 1 for a fully open vertex. The result
// is not clamped. Results are cached by exact (position, normal). Before
// BuildIndex the scene is treated as empty.
func (b *Baker) SampleVertex(position, normal mgl64.Vec3) float64 {
	return b.sample(position, normal)
}

// ApplyAO rebuilds the index and bakes every mesh in traversal order.
func (b *Baker) ApplyAO() error {
	return b.ApplyAOContext(context.Background())
}

// ApplyAOContext is ApplyAO with cancellation checked between meshes.
func (b *Baker) ApplyAOContext(ctx context.Context) error {
	if err := b.BuildIndex(); err != nil {
		return err
	}

	start := time.Now()
	meshes := b.root.Meshes()
	for _, node := range meshes {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.bakeMesh(node)
		b.log.Debug("mesh baked",
			zap.String("node", node.Path()),
			zap.Int("vertices", node.Geometry.VertexCount()))
	}
	b.finish(len(meshes), start)
	return nil
}

func (b *Baker) finish(meshes int, start time.Time) {
	b.meshes = meshes
	b.state = StateBaked
	b.log.Debug("bake complete",
		zap.Int("meshes", meshes),
		zap.Int("vertices", b.stats.Vertices),
		zap.Int("cache_hits", b.stats.CacheHits),
		zap.Int("rays", b.stats.Rays),
		zap.Duration("took", time.Since(start)))
}

// Clamp01 clamps v to [0, 1] for hosts storing the scalar in a bounded
// channel.
func Clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// sampler holds the read-only index and a private cache. Parallel workers
// each own one.
type sampler struct {
	index  *octree.Octree
	dirs   []mgl64.Vec3
	params Params
	cache  vertexCache
	stats  Stats
}

func (s *sampler) sample(position, normal mgl64.Vec3) float64 {
	s.stats.Vertices++
	key := cacheKey{position: position, normal: normal}
	if ao, ok := s.cache[key]; ok {
		s.stats.CacheHits++
		return ao
	}

	origin := position.Add(normal.Mul(s.params.Epsilon * 10))
	var open float64
	for _, d := range s.dirs {
		// Directions behind the surface count as open
		if d.Dot(normal) < 0 {
			open++
			continue
		}
		s.stats.Rays++
		h, hit := s.index.RayIntersect(geom.NewRay(origin, d))
		if !hit {
			open++
			continue
		}
		open += math.Min(1, h*h/s.params.Distance)
	}

	raw := open / float64(len(s.dirs))
	ao := math.Pow(raw*s.params.Exposure, s.params.Gamma)
	s.cache[key] = ao
	return ao
}

// bakeMesh replaces the node's geometry with a copy carrying a color buffer.
// The node's world matrix must be current.
func (s *sampler) bakeMesh(node *scene.Node) {
	g := node.Geometry.Clone()
	g.Colors = make([]float32, len(g.Positions))

	world := node.WorldMatrix()
	nm := node.NormalMatrix()
	for v := 0; v < g.VertexCount(); v++ {
		p := geom.TransformPoint(world, geom.Vec3At(g.Positions, v))
		n := geom.TransformNormal(nm, geom.Vec3At(g.Normals, v))
		ao := float32(s.sample(p, n))
		g.Colors[v*3] = ao
		g.Colors[v*3+1] = ao
		g.Colors[v*3+2] = ao
	}
	g.NeedsUpdate = true
	node.Geometry = g
}
