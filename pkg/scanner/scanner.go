// Package scanner walks a synthesis root, classifies every entry against
// the filter language, pairs matching overlays with their base sources
// and emits a validated, conflict-free set of operations. Structural
// problems (nested filtered directories, ambiguous overlays, colliding
// output paths) abort the scan before any execution side effect.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/dotsmith/pkg/cleanup"
	"github.com/arthur-debert/dotsmith/pkg/config"
	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/filter"
	"github.com/arthur-debert/dotsmith/pkg/formats"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/manifest"
	"github.com/arthur-debert/dotsmith/pkg/naming"
	"github.com/arthur-debert/dotsmith/pkg/platform"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// Scanner discovers candidate sources under a root
type Scanner struct {
	fs     afero.Fs
	cfg    *config.Config
	logger zerolog.Logger
}

// New creates a scanner over the OS filesystem
func New(cfg *config.Config) *Scanner {
	return NewWithFS(cfg, afero.NewOsFs())
}

// NewWithFS creates a scanner over the given filesystem
func NewWithFS(cfg *config.Config, fs afero.Fs) *Scanner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Scanner{
		fs:     fs,
		cfg:    cfg,
		logger: logging.GetLogger("scanner"),
	}
}

// fileEntry is one regular file seen during the walk
type fileEntry struct {
	dir    string
	name   string
	parsed filter.Parsed
}

func (f fileEntry) path() string {
	return filepath.Join(f.dir, f.name)
}

// dirCandidate is one filtered directory seen during the walk
type dirCandidate struct {
	dir    string
	name   string
	parsed filter.Parsed
}

func (d dirCandidate) path() string {
	return filepath.Join(d.dir, d.name)
}

// overlayCandidate pairs an overlay source with how it matches: either
// modern filter groups or a legacy machine-name token
type overlayCandidate struct {
	entry       fileEntry
	legacyToken string
}

// Scan walks the root and returns the validated operation set
func (s *Scanner) Scan(root string, ctx *platform.Context) (*types.ScanResult, error) {
	s.logger.Debug().Str("root", root).Msg("Scanning synthesis root")

	var files []fileEntry
	var dirs []dirCandidate
	if err := s.walk(root, root, &files, &dirs); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("files", len(files)).
		Int("filteredDirs", len(dirs)).
		Msg("Walk complete")

	result := &types.ScanResult{}

	if err := s.resolveDirectories(dirs, ctx, result); err != nil {
		return nil, err
	}
	if err := s.resolveFiles(files, ctx, result); err != nil {
		return nil, err
	}
	if err := validateOutputs(result); err != nil {
		return nil, err
	}

	sort.Slice(result.Merges, func(i, j int) bool {
		return result.Merges[i].OutputPath < result.Merges[j].OutputPath
	})
	sort.Slice(result.DirectoryCopies, func(i, j int) bool {
		return result.DirectoryCopies[i].OutputPath < result.DirectoryCopies[j].OutputPath
	})

	s.logger.Info().
		Int("merges", len(result.Merges)).
		Int("directoryCopies", len(result.DirectoryCopies)).
		Msg("Scan complete")
	return result, nil
}

// walk recursively enumerates the tree, collecting files and filtered
// directories. The contents of filtered directories are opaque payload:
// they are only traversed to reject nested filtered directories, never
// re-interpreted for their own filter syntax.
func (s *Scanner) walk(root, dir string, files *[]fileEntry, dirs *[]dirCandidate) error {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileRead, "failed to read directory %s", dir)
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if s.skip(root, path, name) {
			continue
		}

		parsed := filter.Parse(name)
		if entry.IsDir() {
			filtered := len(parsed.Filters) > 0
			if parsed.HasBasePlaceholder || (filtered && naming.IsBaseSource(name)) {
				return errors.Newf(errors.ErrDirBaseMarker,
					"directory %s carries a base marker; directories have no base fallback", path)
			}
			if filtered {
				if err := s.rejectNestedFiltered(path); err != nil {
					return err
				}
				*dirs = append(*dirs, dirCandidate{dir: dir, name: name, parsed: parsed})
				continue
			}
			if err := s.walk(root, path, files, dirs); err != nil {
				return err
			}
			continue
		}

		*files = append(*files, fileEntry{dir: dir, name: name, parsed: parsed})
	}
	return nil
}

// skip filters out entries that are never sources: VCS metadata, the
// tool's own files, soft-deleted outputs and configured ignores
func (s *Scanner) skip(root, path, name string) bool {
	switch name {
	case ".git", config.FileName, manifest.FileName, manifest.LockName:
		return true
	}
	if strings.HasSuffix(name, cleanup.StaleSuffix) {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return s.cfg.IsIgnored(rel)
}

// rejectNestedFiltered walks the subtree of a filtered directory and
// fails if any descendant directory carries filter syntax of its own.
// Only one level of directory filtering is supported.
func (s *Scanner) rejectNestedFiltered(top string) error {
	return afero.Walk(s.fs, top, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileRead, "failed to walk %s", path)
		}
		if path == top || !info.IsDir() {
			return nil
		}
		parsed := filter.Parse(info.Name())
		if len(parsed.Filters) > 0 || parsed.HasBasePlaceholder {
			return errors.Newf(errors.ErrNestedFilteredDir,
				"filtered directory %s is nested inside filtered directory %s", path, top).
				WithDetail("parent", top)
		}
		return nil
	})
}

// resolveDirectories groups filtered directories by canonical output
// path, evaluates their filters and emits one copy operation per output
// with exactly one matching source
func (s *Scanner) resolveDirectories(dirs []dirCandidate, ctx *platform.Context, result *types.ScanResult) error {
	byOutput := make(map[string][]dirCandidate)
	var order []string
	for _, d := range dirs {
		output := filepath.Join(d.dir, d.parsed.Canonical)
		if _, seen := byOutput[output]; !seen {
			order = append(order, output)
		}
		byOutput[output] = append(byOutput[output], d)
	}

	for _, output := range order {
		candidates := byOutput[output]
		var matched []dirCandidate
		for _, d := range candidates {
			if ok, _ := filter.Evaluate(d.parsed.Filters, ctx); ok {
				matched = append(matched, d)
			}
		}
		if len(matched) > 1 {
			return errors.Newf(errors.ErrOutputConflict,
				"directories %s both resolve to output %s under the current context",
				sourceNames(matched), output).
				WithDetail("output", output)
		}
		if len(matched) == 1 {
			result.DirectoryCopies = append(result.DirectoryCopies, types.DirectoryCopyOperation{
				SourcePath: matched[0].path(),
				OutputPath: output,
			})
		}
	}
	return nil
}

// resolveFiles pairs overlays with bases per canonical output path and
// emits merge operations
func (s *Scanner) resolveFiles(files []fileEntry, ctx *platform.Context, result *types.ScanResult) error {
	bases := make(map[string][]fileEntry)           // output path -> base sources
	overlays := make(map[string][]overlayCandidate) // output path -> overlay sources
	var order []string
	note := func(output string) {
		if _, b := bases[output]; b {
			return
		}
		if _, o := overlays[output]; o {
			return
		}
		order = append(order, output)
	}

	var plain []fileEntry
	for _, f := range files {
		switch {
		case naming.IsBaseSource(f.name):
			output := filepath.Join(f.dir, naming.CanonicalOutputName(f.name))
			// A base may carry its own filter groups; a base whose
			// filters fail is treated as absent
			if ok, _ := filter.Evaluate(f.parsed.Filters, ctx); ok {
				note(output)
				bases[output] = append(bases[output], f)
			}
		case len(f.parsed.Filters) > 0:
			output := filepath.Join(f.dir, f.parsed.Canonical)
			note(output)
			overlays[output] = append(overlays[output], overlayCandidate{entry: f})
		default:
			plain = append(plain, f)
		}
	}

	// Legacy dotted machine-name overlays only activate next to a base
	// sharing their canonical name; ordinary dotted filenames stay inert
	for _, f := range plain {
		for output := range bases {
			if filepath.Dir(output) != f.dir {
				continue
			}
			token, ok := naming.MatchLegacyOverlay(f.name, filepath.Base(output))
			if !ok {
				continue
			}
			overlays[output] = append(overlays[output], overlayCandidate{entry: f, legacyToken: token})
		}
	}

	for _, output := range order {
		baseList := bases[output]
		if len(baseList) > 1 {
			return errors.Newf(errors.ErrOutputConflict,
				"base sources %s both resolve to output %s",
				entryNames(baseList), output).
				WithDetail("output", output)
		}

		var matched []overlayCandidate
		for _, o := range overlays[output] {
			if o.legacyToken != "" {
				if strings.EqualFold(o.legacyToken, ctx.Machine) {
					matched = append(matched, o)
				}
				continue
			}
			if ok, _ := filter.Evaluate(o.entry.parsed.Filters, ctx); ok {
				matched = append(matched, o)
			}
		}
		if len(matched) > 1 {
			return errors.Newf(errors.ErrAmbiguousOverlay,
				"overlays %s all match the current context for output %s",
				overlayNames(matched), output).
				WithDetail("output", output)
		}

		op := types.MergeOperation{
			OutputPath: output,
			Format:     formats.KindForName(filepath.Base(output)),
		}
		if len(baseList) == 1 {
			op.BasePath = baseList[0].path()
		}
		if len(matched) == 1 {
			op.OverlayPath = matched[0].entry.path()
		}
		// A base with no matching overlay still synthesizes, copy-base
		// only; an unmatched overlay without a base yields nothing
		if op.BasePath == "" && op.OverlayPath == "" {
			continue
		}
		result.Merges = append(result.Merges, op)
	}
	return nil
}

// validateOutputs enforces that no two operations target the same output
// path and that no output falls beneath a directory-copy output
func validateOutputs(result *types.ScanResult) error {
	sources := make(map[string]string) // output path -> source description
	record := func(output, source string) error {
		if prev, dup := sources[output]; dup {
			return errors.Newf(errors.ErrOutputConflict,
				"%s and %s both resolve to output %s", prev, source, output).
				WithDetail("output", output)
		}
		sources[output] = source
		return nil
	}

	for _, op := range result.Merges {
		src := op.BasePath
		if op.OverlayPath != "" {
			src = op.OverlayPath
		}
		if err := record(op.OutputPath, src); err != nil {
			return err
		}
	}
	for _, op := range result.DirectoryCopies {
		if err := record(op.OutputPath, op.SourcePath); err != nil {
			return err
		}
	}

	for _, dirOp := range result.DirectoryCopies {
		prefix := dirOp.OutputPath + string(filepath.Separator)
		for output, source := range sources {
			if output == dirOp.OutputPath {
				continue
			}
			if strings.HasPrefix(output, prefix) {
				return errors.Newf(errors.ErrOutputConflict,
					"output %s from %s falls inside directory output %s from %s",
					output, source, dirOp.OutputPath, dirOp.SourcePath).
					WithDetail("output", output)
			}
		}
	}
	return nil
}

func sourceNames(dirs []dirCandidate) string {
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.name
	}
	return strings.Join(names, " and ")
}

func entryNames(files []fileEntry) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return strings.Join(names, " and ")
}

func overlayNames(overlays []overlayCandidate) string {
	names := make([]string, len(overlays))
	for i, o := range overlays {
		names[i] = o.entry.name
	}
	return strings.Join(names, " and ")
}
