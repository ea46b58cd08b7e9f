// Package manifest persists the output-path set of the most recently
// completed run. The stale-output reconciler compares it against the
// current run's outputs to detect sources that disappeared. One manifest
// lives at each synthesis root and is rewritten at the end of every run.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/logging"
)

const (
	// FileName is the manifest file at the synthesis root; it is local
	// state and should not be version-controlled
	FileName = ".dotsmith-manifest.json"
	// LockName is the run lock serializing concurrent runs per root
	LockName = ".dotsmith-manifest.lock"
	// Version is the current manifest schema version
	Version = 1
	// staleLockAge is how old a lock file must be before it is
	// considered abandoned and broken
	staleLockAge = 10 * time.Minute
)

// Manifest is the durable record of one run's intended outputs. Outputs
// are recorded whether or not a write actually occurred; unchanged
// outputs still count as current.
type Manifest struct {
	Version int       `json:"version"`
	Outputs []string  `json:"outputs"`
	LastRun time.Time `json:"lastRun"`
}

// Store reads and writes the manifest for one synthesis root
type Store struct {
	root   string
	logger zerolog.Logger
}

// NewStore creates a store rooted at the given directory
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		logger: logging.GetLogger("manifest"),
	}
}

// Path returns the manifest file path
func (s *Store) Path() string {
	return filepath.Join(s.root, FileName)
}

// Load reads the manifest. An absent manifest yields an empty one, which
// makes the very first run reconcile against nothing.
func (s *Store) Load() (*Manifest, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return &Manifest{Version: Version}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "failed to read %s", s.Path())
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "failed to parse %s", s.Path())
	}
	return &m, nil
}

// Save overwrites the manifest with exactly the given outputs and a
// fresh timestamp. The write goes through a temp file and rename so a
// crashed run never leaves a truncated manifest behind.
func (s *Store) Save(outputs []string) error {
	m := Manifest{
		Version: Version,
		Outputs: outputs,
		LastRun: time.Now().UTC(),
	}
	if m.Outputs == nil {
		m.Outputs = []string{}
	}

	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestSave, "failed to encode manifest")
	}
	data = append(data, '\n')

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestSave, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return errors.Wrapf(err, errors.ErrManifestSave, "failed to replace %s", s.Path())
	}

	s.logger.Debug().
		Int("outputs", len(m.Outputs)).
		Str("path", s.Path()).
		Msg("Manifest saved")
	return nil
}

// AcquireLock takes the per-root run lock. It returns a release function
// on success. A lock older than staleLockAge is assumed abandoned and
// broken before retrying once.
func (s *Store) AcquireLock() (func(), error) {
	lockPath := filepath.Join(s.root, LockName)

	acquire := func() (func(), error) {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(f, "%d\n", os.Getpid())
		_ = f.Close()
		return func() { _ = os.Remove(lockPath) }, nil
	}

	release, err := acquire()
	if err == nil {
		return release, nil
	}
	if !os.IsExist(err) {
		return nil, errors.Wrapf(err, errors.ErrLockHeld, "failed to create lock %s", lockPath)
	}

	if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
		s.logger.Warn().Str("lock", lockPath).Msg("Breaking stale run lock")
		_ = os.Remove(lockPath)
		if release, err = acquire(); err == nil {
			return release, nil
		}
	}
	return nil, errors.Newf(errors.ErrLockHeld, "another run holds the lock %s", lockPath)
}
