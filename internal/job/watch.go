package job

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Editors often save with several writes in a row; they collapse into one
// bake once the file has been quiet this long.
const watchDebounce = 100 * time.Millisecond

// Watch bakes the scene once and then again every time the scene file is
// written, until ctx is done. Every outcome is handed to report. Watch
// returns nil when ctx ends and an error only if the watcher itself fails.
func (j *Job) Watch(ctx context.Context, report func(*Summary, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so replace-on-save editors keep being seen
	input := filepath.Clean(j.cfg.Run.Input)
	if err := w.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", input, err)
	}
	j.log.Info("watching scene", zap.String("input", input))

	report(j.Run(ctx))

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != input {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				j.log.Debug("scene changed", zap.Stringer("op", event.Op))
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			j.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			report(j.Run(ctx))
		}
	}
}
