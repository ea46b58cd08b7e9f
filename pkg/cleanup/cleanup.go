// Package cleanup handles the stale-output lifecycle. Outputs recorded
// by the previous run that the current run no longer produces are soft
// deleted: renamed with a fixed suffix so they stay recoverable. The
// manifest is rewritten with the current outputs after every pass, which
// makes reconciliation idempotent.
package cleanup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/manifest"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// StaleSuffix is appended to soft-deleted outputs, files and directories
// alike, with no extension-aware insertion.
const StaleSuffix = ".stale"

// Reconciler compares manifest state against the current output set
type Reconciler struct {
	store  *manifest.Store
	logger zerolog.Logger
}

// NewReconciler creates a reconciler over the given manifest store
func NewReconciler(store *manifest.Store) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logging.GetLogger("cleanup"),
	}
}

// Reconcile soft-deletes every manifest-recorded output missing from the
// current set, then unconditionally rewrites the manifest with exactly
// the current outputs. Rename failures are collected, not fatal; the
// remaining stale paths are still processed.
func (r *Reconciler) Reconcile(currentOutputs []string) types.ReconcileResult {
	var result types.ReconcileResult

	previous, err := r.store.Load()
	if err != nil {
		result.Errors = append(result.Errors, err)
		previous = &manifest.Manifest{Version: manifest.Version}
	}

	current := make(map[string]bool, len(currentOutputs))
	for _, p := range currentOutputs {
		current[p] = true
	}

	for _, path := range previous.Outputs {
		if current[path] {
			continue
		}
		info, err := os.Lstat(path)
		if os.IsNotExist(err) {
			// Already gone, nothing to soft delete
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, errors.Wrapf(err, errors.ErrRename,
				"failed to inspect stale output %s", path))
			continue
		}

		if err := softDelete(path); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if info.IsDir() {
			result.RenamedDirectories = append(result.RenamedDirectories, path)
		} else {
			result.RenamedFiles = append(result.RenamedFiles, path)
		}
		r.logger.Info().Str("path", path).Msg("Soft-deleted stale output")
	}

	if err := r.store.Save(currentOutputs); err != nil {
		result.Errors = append(result.Errors, err)
	}
	return result
}

// softDelete renames a path to its stale form. An existing stale entry
// at the target is removed first so the rename cannot fail on collision.
func softDelete(path string) error {
	stale := path + StaleSuffix
	if _, err := os.Lstat(stale); err == nil {
		if err := os.RemoveAll(stale); err != nil {
			return errors.Wrapf(err, errors.ErrRename,
				"failed to clear previous stale entry %s", stale)
		}
	}
	if err := os.Rename(path, stale); err != nil {
		return errors.Wrapf(err, errors.ErrRename, "failed to soft-delete %s", path)
	}
	return nil
}

// Restore reverses one soft delete. It fails when no stale entry exists
// or when the original path is already occupied.
func Restore(path string) error {
	stale := path + StaleSuffix
	if _, err := os.Lstat(stale); err != nil {
		return errors.Wrapf(err, errors.ErrNotFound, "no stale entry for %s", path)
	}
	if _, err := os.Lstat(path); err == nil {
		return errors.Newf(errors.ErrInvalidInput,
			"cannot restore %s: the original path already exists", path)
	}
	if err := os.Rename(stale, path); err != nil {
		return errors.Wrapf(err, errors.ErrRename, "failed to restore %s", path)
	}
	return nil
}

// Purge permanently deletes every soft-deleted entry under root and
// returns the removed paths.
func Purge(root string) ([]string, error) {
	var removed []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				// Removed together with a purged parent
				return nil
			}
			return err
		}
		if path == root || !strings.HasSuffix(info.Name(), StaleSuffix) {
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, errors.ErrRename, "failed to purge %s", path)
		}
		removed = append(removed, path)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return removed, err
	}
	return removed, nil
}
