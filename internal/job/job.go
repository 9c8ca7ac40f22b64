// Package job runs one bake: scene file in, result file out.
package job

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/aobake/internal/config"
	"github.com/Faultbox/aobake/pkg/aobake"
	"github.com/Faultbox/aobake/pkg/formats"
)

// ErrNoInput is returned when no scene file is configured.
var ErrNoInput = errors.New("no scene file given")

// Summary describes a finished bake.
type Summary struct {
	Input    string
	Output   string
	Stats    aobake.Stats
	Duration time.Duration
}

// Job is a configured bake.
type Job struct {
	cfg *config.Config
	log *zap.Logger
}

// New validates cfg and creates a job. A nil logger discards output.
func New(cfg *config.Config, log *zap.Logger) (*Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Run.Input == "" {
		return nil, ErrNoInput
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Job{cfg: cfg, log: log}, nil
}

// OutputPath returns the configured result path, or the input path with its
// extension replaced by ".ao.yaml".
func OutputPath(run config.RunConfig) string {
	if run.Output != "" {
		return run.Output
	}
	base := strings.TrimSuffix(run.Input, filepath.Ext(run.Input))
	return base + ".ao.yaml"
}

// Run loads the scene, bakes it and writes the result.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	run := j.cfg.Run

	root, err := formats.ParseSceneFile(run.Input)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", run.Input, err)
	}
	j.log.Info("scene loaded",
		zap.String("input", run.Input),
		zap.Int("meshes", len(root.Meshes())))

	baker, err := aobake.New(root, j.cfg.Bake.Params(), aobake.WithLogger(j.log.Named("baker")))
	if err != nil {
		return nil, err
	}

	if run.Workers == 1 {
		err = baker.ApplyAOContext(ctx)
	} else {
		err = baker.ApplyParallel(ctx, run.Workers)
	}
	if err != nil {
		return nil, fmt.Errorf("baking %s: %w", run.Input, err)
	}

	out := OutputPath(run)
	result := formats.NewResult(root, baker.Params(), run.RGBA)
	if err := formats.WriteResultFile(out, result); err != nil {
		return nil, err
	}

	s := &Summary{
		Input:    run.Input,
		Output:   out,
		Stats:    baker.Stats(),
		Duration: time.Since(start),
	}
	j.log.Info("bake finished",
		zap.String("output", out),
		zap.Int("meshes", s.Stats.Meshes),
		zap.Int("triangles", s.Stats.Triangles),
		zap.Int("vertices", s.Stats.Vertices),
		zap.Int("cache_hits", s.Stats.CacheHits),
		zap.Int("rays", s.Stats.Rays),
		zap.Duration("took", s.Duration))
	return s, nil
}
