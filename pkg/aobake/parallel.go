package aobake

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/aobake/pkg/scene"
)

// ApplyParallel rebuilds the index and bakes meshes on up to workers
// goroutines. The index is shared read-only; each worker samples with a
// private cache which is merged back into the Baker's cache afterwards.
// Whole meshes are the unit of work, so results match ApplyAO exactly.
// workers < 1 selects GOMAXPROCS.
func (b *Baker) ApplyParallel(ctx context.Context, workers int) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if err := b.BuildIndex(); err != nil {
		return err
	}

	start := time.Now()
	meshes := b.root.Meshes()
	if workers > len(meshes) {
		workers = len(meshes)
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan *scene.Node)

	g.Go(func() error {
		defer close(jobs)
		for _, node := range meshes {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- node:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	workerSamplers := make([]*sampler, workers)
	for w := range workerSamplers {
		s := b.fork()
		workerSamplers[w] = s
		g.Go(func() error {
			for node := range jobs {
				s.bakeMesh(node)
				b.log.Debug("mesh baked",
					zap.String("node", node.Path()),
					zap.Int("worker", w),
					zap.Int("vertices", node.Geometry.VertexCount()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range workerSamplers {
		b.cache.merge(s.cache)
		b.stats.add(s.stats)
	}
	b.finish(len(meshes), start)
	return nil
}

// fork returns a sampler sharing the index with an empty private cache.
func (b *Baker) fork() *sampler {
	return &sampler{
		index:  b.index,
		dirs:   b.dirs,
		params: b.params,
		cache:  make(vertexCache),
	}
}
