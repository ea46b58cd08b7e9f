// Package pipeline wires the synthesis stages together: scan the root,
// execute the resulting operations, reconcile stale outputs. It is the
// collaborator surface for the CLI and the watcher; every entry point is
// idempotent and reports structured results instead of failing on
// "nothing to do".
package pipeline

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/cleanup"
	"github.com/arthur-debert/dotsmith/pkg/config"
	"github.com/arthur-debert/dotsmith/pkg/executor"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/manifest"
	"github.com/arthur-debert/dotsmith/pkg/platform"
	"github.com/arthur-debert/dotsmith/pkg/scanner"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// defaultWorkers bounds the number of operations executing at once.
// Operations have disjoint output paths so any interleaving is safe.
const defaultWorkers = 4

// Pipeline runs the synthesis stages over one root
type Pipeline struct {
	root    string
	cfg     *config.Config
	ctx     *platform.Context
	scanner *scanner.Scanner
	merge   *executor.MergeExecutor
	dircopy *executor.DirectoryCopyExecutor
	store   *manifest.Store
	rec     *cleanup.Reconciler
	workers int
	logger  zerolog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithContext overrides the host context, used by tests and callers that
// thread an explicit context
func WithContext(ctx *platform.Context) Option {
	return func(p *Pipeline) { p.ctx = ctx }
}

// WithWorkers overrides the execution concurrency
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a pipeline rooted at the given directory, loading the
// root's configuration and resolving the host context.
func New(root string, opts ...Option) (*Pipeline, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}

	store := manifest.NewStore(abs)
	p := &Pipeline{
		root:    abs,
		cfg:     cfg,
		scanner: scanner.New(cfg),
		merge:   executor.NewMergeExecutor(),
		dircopy: executor.NewDirectoryCopyExecutor(),
		store:   store,
		rec:     cleanup.NewReconciler(store),
		workers: defaultWorkers,
		logger:  logging.GetLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ctx == nil {
		p.ctx = contextFor(cfg)
	}
	return p, nil
}

// contextFor resolves the host context and applies the root
// configuration's env override and custom keys
func contextFor(cfg *config.Config) *platform.Context {
	ctx := platform.Current().WithExtra(cfg.Context)
	if cfg.Env != "" {
		ctx.Env = cfg.Env
	}
	return ctx
}

// Root returns the absolute synthesis root
func (p *Pipeline) Root() string {
	return p.root
}

// Context returns the context operations are matched against
func (p *Pipeline) Context() *platform.Context {
	return p.ctx
}

// RunResult aggregates one full pipeline pass
type RunResult struct {
	Scan      *types.ScanResult
	Merges    []types.MergeResult
	Copies    []types.CopyResult
	Reconcile types.ReconcileResult
}

// Changed counts the operations that wrote something
func (r *RunResult) Changed() int {
	n := 0
	for _, m := range r.Merges {
		if m.Changed {
			n++
		}
	}
	for _, c := range r.Copies {
		if c.Changed {
			n++
		}
	}
	return n
}

// Failures returns the operational errors collected across the pass
func (r *RunResult) Failures() []error {
	var errs []error
	for _, m := range r.Merges {
		if m.Err != nil {
			errs = append(errs, m.Err)
		}
	}
	for _, c := range r.Copies {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	errs = append(errs, r.Reconcile.Errors...)
	return errs
}

// Run performs a complete pass: scan, execute every operation, reconcile
// stale outputs. Structural scan errors abort before any write.
// Operational failures are reported per operation and do not block
// siblings. Concurrent runs against the same root are serialized by the
// manifest lock.
func (p *Pipeline) Run() (*RunResult, error) {
	release, err := p.store.AcquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	scanResult, err := p.scanner.Scan(p.root, p.ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Scan: scanResult}
	result.Merges, result.Copies = p.executeAll(scanResult)
	result.Reconcile = p.rec.Reconcile(scanResult.OutputPaths())

	p.logger.Info().
		Int("operations", len(result.Merges)+len(result.Copies)).
		Int("changed", result.Changed()).
		Int("failures", len(result.Failures())).
		Msg("Run complete")
	return result, nil
}

// executeAll runs every operation over a bounded worker pool. Results
// land at their operation's index so ordering is deterministic.
func (p *Pipeline) executeAll(scan *types.ScanResult) ([]types.MergeResult, []types.CopyResult) {
	merges := make([]types.MergeResult, len(scan.Merges))
	copies := make([]types.CopyResult, len(scan.DirectoryCopies))

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, op := range scan.Merges {
		wg.Add(1)
		go func(i int, op types.MergeOperation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			merges[i] = p.merge.Execute(op)
		}(i, op)
	}
	for i, op := range scan.DirectoryCopies {
		wg.Add(1)
		go func(i int, op types.DirectoryCopyOperation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			copies[i] = p.dircopy.Execute(op)
		}(i, op)
	}
	wg.Wait()
	return merges, copies
}

// Scan performs a scan pass without executing anything
func (p *Pipeline) Scan() (*types.ScanResult, error) {
	return p.scanner.Scan(p.root, p.ctx)
}

// ExecuteMerge applies one merge operation
func (p *Pipeline) ExecuteMerge(op types.MergeOperation) types.MergeResult {
	return p.merge.Execute(op)
}

// ExecuteDirectoryCopy applies one directory-copy operation
func (p *Pipeline) ExecuteDirectoryCopy(op types.DirectoryCopyOperation) types.CopyResult {
	return p.dircopy.Execute(op)
}

// Reconcile soft-deletes stale outputs against the given current set
func (p *Pipeline) Reconcile(outputs []string) types.ReconcileResult {
	return p.rec.Reconcile(outputs)
}

// RefreshPath recomputes the scan and executes only the operations whose
// sources involve the given absolute path. It is the watcher's entry
// point for content changes; topology changes (adds and removals) go
// through Run instead. Nothing matching is a no-op, not an error.
func (p *Pipeline) RefreshPath(absPath string) (*RunResult, error) {
	scanResult, err := p.scanner.Scan(p.root, p.ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Scan: scanResult}
	for _, op := range scanResult.Merges {
		if op.BasePath == absPath || op.OverlayPath == absPath {
			result.Merges = append(result.Merges, p.merge.Execute(op))
		}
	}
	for _, op := range scanResult.DirectoryCopies {
		if op.SourcePath == absPath || isUnder(absPath, op.SourcePath) {
			result.Copies = append(result.Copies, p.dircopy.Execute(op))
		}
	}
	return result, nil
}

// isUnder reports whether path lies beneath dir
func isUnder(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
