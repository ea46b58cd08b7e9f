// Package watch drives the pipeline from filesystem events. Content
// changes refresh the affected path, topology changes (adds, removals,
// renames) trigger a full rescan, and bursts of events collapse through
// a per-path debounce. Cancellation is cooperative: in-flight executions
// finish and pending timers are released before Run returns.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/cleanup"
	"github.com/arthur-debert/dotsmith/pkg/config"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/manifest"
	"github.com/arthur-debert/dotsmith/pkg/pipeline"
)

// DefaultDebounce is the quiet period required before a burst of events
// on one path collapses into a single re-execution
const DefaultDebounce = 250 * time.Millisecond

// rescanKey is the debounce key shared by all topology changes
const rescanKey = "\x00rescan"

// Watcher drives a pipeline from fsnotify events
type Watcher struct {
	pipe     *pipeline.Pipeline
	debounce *debouncer
	logger   zerolog.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides the quiet period
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = newDebouncer(d) }
}

// New creates a watcher over the given pipeline
func New(pipe *pipeline.Pipeline, opts ...Option) *Watcher {
	w := &Watcher{
		pipe:     pipe,
		debounce: newDebouncer(DefaultDebounce),
		logger:   logging.GetLogger("watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs an initial full pass and then reacts to filesystem events
// until the context is cancelled. Cancellation drains in-flight work and
// returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addTree(fsw, w.pipe.Root()); err != nil {
		return err
	}

	if _, err := w.pipe.Run(); err != nil {
		// A structural error leaves watch mode running; the next
		// correcting edit triggers a rescan
		w.logger.Error().Err(err).Msg("Initial run failed")
	}

	w.logger.Info().Str("root", w.pipe.Root()).Msg("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down watch mode")
			w.debounce.Shutdown()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.debounce.Shutdown()
				return nil
			}
			w.handle(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.debounce.Shutdown()
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// handle classifies one event and schedules the matching reaction
func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if w.ignorable(name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0:
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
				_ = w.addTree(fsw, event.Name)
			}
		}
		w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).
			Msg("Topology change, scheduling rescan")
		w.debounce.Schedule(rescanKey, w.fullRun)
	case event.Op&fsnotify.Write != 0:
		path := event.Name
		w.logger.Trace().Str("path", path).Msg("Content change, scheduling refresh")
		w.debounce.Schedule(path, func() { w.refresh(path) })
	}
}

// ignorable filters the tool's own artifacts so synthesis output never
// feeds back into the event loop as work
func (w *Watcher) ignorable(name string) bool {
	switch name {
	case manifest.FileName, manifest.FileName + ".tmp", manifest.LockName, config.FileName, ".git":
		return true
	}
	return strings.HasSuffix(name, cleanup.StaleSuffix)
}

// fullRun executes a complete pipeline pass
func (w *Watcher) fullRun() {
	if _, err := w.pipe.Run(); err != nil {
		w.logger.Error().Err(err).Msg("Rescan failed")
	}
}

// refresh re-executes the operations involving one path
func (w *Watcher) refresh(path string) {
	if _, err := w.pipe.RefreshPath(path); err != nil {
		w.logger.Error().Err(err).Str("path", path).Msg("Refresh failed")
	}
}

// addTree registers the directory and every descendant directory with
// the fsnotify watcher
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == ".git" || strings.HasSuffix(name, cleanup.StaleSuffix)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
