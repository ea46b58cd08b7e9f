// Package executor applies the operations emitted by the scanner. Both
// executors compare against the existing output before writing, so a
// repeated run with unchanged sources is a true no-op. That equality
// check is the pipeline's idempotence and re-entrancy guarantee.
package executor

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/formats"
	"github.com/arthur-debert/dotsmith/pkg/logging"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// MergeExecutor applies one format adapter to one merge operation
type MergeExecutor struct {
	logger zerolog.Logger
}

// NewMergeExecutor creates a merge executor
func NewMergeExecutor() *MergeExecutor {
	return &MergeExecutor{
		logger: logging.GetLogger("executor.merge"),
	}
}

// Execute synthesizes one output. With neither source present the
// operation is skipped without error. With exactly one source present
// its raw content becomes the result verbatim. With both present the
// sources are parsed, merged and serialized through the operation's
// format adapter. Any parse or merge failure leaves the output path
// untouched.
func (e *MergeExecutor) Execute(op types.MergeOperation) types.MergeResult {
	result := types.MergeResult{Operation: op}

	base, baseExists, err := readIfExists(op.BasePath)
	if err != nil {
		result.Err = err
		return result
	}
	overlay, overlayExists, err := readIfExists(op.OverlayPath)
	if err != nil {
		result.Err = err
		return result
	}

	var output []byte
	switch {
	case !baseExists && !overlayExists:
		result.Skipped = true
		return result
	case baseExists && !overlayExists:
		output = base
	case !baseExists && overlayExists:
		output = overlay
	default:
		output, err = e.merge(op, base, overlay)
		if err != nil {
			result.Err = err
			return result
		}
	}

	existing, outputExists, err := readIfExists(op.OutputPath)
	if err != nil {
		result.Err = err
		return result
	}
	if outputExists && bytes.Equal(existing, output) {
		result.Success = true
		e.logger.Debug().Str("output", op.OutputPath).Msg("Output unchanged")
		return result
	}

	if err := os.MkdirAll(filepath.Dir(op.OutputPath), 0755); err != nil {
		result.Err = errors.Wrapf(err, errors.ErrFileWrite,
			"failed to create parent directory for %s", op.OutputPath)
		return result
	}
	if err := os.WriteFile(op.OutputPath, output, 0644); err != nil {
		result.Err = errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", op.OutputPath)
		return result
	}

	result.Success = true
	result.Changed = true
	e.logger.Info().Str("output", op.OutputPath).Msg("Output written")
	return result
}

// merge runs both payloads through the operation's format adapter
func (e *MergeExecutor) merge(op types.MergeOperation, base, overlay []byte) ([]byte, error) {
	adapter, err := formats.Get(op.Format)
	if err != nil {
		return nil, err
	}

	baseValue, err := adapter.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "base %s", op.BasePath)
	}
	overlayValue, err := adapter.Parse(overlay)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err), "overlay %s", op.OverlayPath)
	}

	merged, err := adapter.Merge(baseValue, overlayValue)
	if err != nil {
		return nil, errors.Wrapf(err, errors.GetErrorCode(err),
			"merging %s with %s", op.BasePath, op.OverlayPath)
	}
	return adapter.Serialize(merged)
}

// readIfExists reads a file, distinguishing absence from failure. An
// empty path counts as absent.
func readIfExists(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", path)
	}
	return data, true, nil
}
