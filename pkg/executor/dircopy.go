package executor

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// compareChunkSize is the buffer size for chunked content comparison of
// large files
const compareChunkSize = 64 * 1024

// DirectoryCopyExecutor replicates a matched directory's contents
// byte-for-byte into its output location
type DirectoryCopyExecutor struct {
	logger zerolog.Logger
}

// NewDirectoryCopyExecutor creates a directory-copy executor
func NewDirectoryCopyExecutor() *DirectoryCopyExecutor {
	return &DirectoryCopyExecutor{
		logger: logging.GetLogger("executor.dircopy"),
	}
}

// Execute copies every file under the source into the output location.
// Symlinks are replicated as symlinks pointing at the same target, never
// dereferenced. Identical regular files are left untouched. Hidden
// entries participate like visible ones. An empty source still yields an
// empty output directory; a missing source is zero files, not an error.
func (e *DirectoryCopyExecutor) Execute(op types.DirectoryCopyOperation) types.CopyResult {
	result := types.CopyResult{Operation: op}

	if _, err := os.Lstat(op.SourcePath); os.IsNotExist(err) {
		result.Success = true
		return result
	}

	err := filepath.WalkDir(op.SourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileRead, "failed to walk %s", path)
		}
		rel, err := filepath.Rel(op.SourcePath, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to relativize %s", path)
		}
		dest := filepath.Join(op.OutputPath, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", dest)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			wrote, err := replicateSymlink(path, dest)
			if err != nil {
				return err
			}
			if wrote {
				result.FilesWritten++
			} else {
				result.FilesUnchanged++
			}
			return nil
		default:
			same, err := filesEqual(path, dest)
			if err != nil {
				return err
			}
			if same {
				result.FilesUnchanged++
				return nil
			}
			if err := copyFile(path, dest); err != nil {
				return err
			}
			result.FilesWritten++
			return nil
		}
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Success = true
	result.Changed = result.FilesWritten > 0
	e.logger.Debug().
		Str("source", op.SourcePath).
		Str("output", op.OutputPath).
		Int("written", result.FilesWritten).
		Int("unchanged", result.FilesUnchanged).
		Msg("Directory copy complete")
	return result
}

// replicateSymlink mirrors a symlink at dest, reporting whether a write
// was needed
func replicateSymlink(src, dest string) (bool, error) {
	target, err := os.Readlink(src)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to read symlink %s", src)
	}

	if existing, err := os.Readlink(dest); err == nil && existing == target {
		return false, nil
	}
	if _, err := os.Lstat(dest); err == nil {
		if err := os.RemoveAll(dest); err != nil {
			return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to replace %s", dest)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite,
			"failed to create parent directory for %s", dest)
	}
	if err := os.Symlink(target, dest); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to create symlink %s", dest)
	}
	return true, nil
}

// filesEqual compares two files by size first and content second. The
// content pass is chunked so large files never load fully into memory.
func filesEqual(src, dest string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to stat %s", src)
	}
	destInfo, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to stat %s", dest)
	}
	if srcInfo.Size() != destInfo.Size() {
		return false, nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to open %s", src)
	}
	defer func() { _ = srcFile.Close() }()
	destFile, err := os.Open(dest)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileRead, "failed to open %s", dest)
	}
	defer func() { _ = destFile.Close() }()

	srcBuf := make([]byte, compareChunkSize)
	destBuf := make([]byte, compareChunkSize)
	for {
		n, err := io.ReadFull(srcFile, srcBuf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return false, errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", src)
		}
		m, destErr := io.ReadFull(destFile, destBuf)
		if destErr != nil && destErr != io.EOF && destErr != io.ErrUnexpectedEOF {
			return false, errors.Wrapf(destErr, errors.ErrFileRead, "failed to read %s", dest)
		}
		if n != m || !bytes.Equal(srcBuf[:n], destBuf[:m]) {
			return false, nil
		}
		if n < compareChunkSize {
			return true, nil
		}
	}
}

// copyFile writes the source content verbatim at dest, binary-safe
func copyFile(src, dest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileRead, "failed to open %s", src)
	}
	defer func() { _ = srcFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite,
			"failed to create parent directory for %s", dest)
	}
	destFile, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", dest)
	}
	if _, err := io.Copy(destFile, srcFile); err != nil {
		_ = destFile.Close()
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to copy %s", dest)
	}
	if err := destFile.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to finish %s", dest)
	}
	return nil
}
