// Package types holds the value types shared across the synthesis
// pipeline: the operations emitted by the scanner, the results returned
// by the executors, and the format kinds wiring operations to adapters.
package types

// FormatKind selects the merge strategy for an output
type FormatKind string

const (
	// FormatJSON is object notation with comments and trailing commas
	// tolerated on parse
	FormatJSON FormatKind = "json"
	// FormatYAML is YAML documents merged with the structured rules
	FormatYAML FormatKind = "yaml"
	// FormatTOML is TOML documents merged with the structured rules
	FormatTOML FormatKind = "toml"
	// FormatKeyValue is line-oriented key=value files merged by upsert
	FormatKeyValue FormatKind = "keyvalue"
	// FormatText is plain text merged by appending
	FormatText FormatKind = "text"
)

// MergeOperation is one base+overlay -> output triple. BasePath is empty
// when no base source exists, OverlayPath is empty when no overlay
// matched the context; never both.
type MergeOperation struct {
	BasePath    string
	OverlayPath string
	OutputPath  string
	Format      FormatKind
}

// DirectoryCopyOperation replicates one matched filtered directory into
// its canonical output location.
type DirectoryCopyOperation struct {
	SourcePath string
	OutputPath string
}

// ScanResult aggregates one scan pass over a synthesis root
type ScanResult struct {
	Merges          []MergeOperation
	DirectoryCopies []DirectoryCopyOperation
}

// OutputPaths returns the output paths of every operation, merges first.
// The scanner guarantees they are pairwise distinct and non-nested.
func (r *ScanResult) OutputPaths() []string {
	paths := make([]string, 0, len(r.Merges)+len(r.DirectoryCopies))
	for _, op := range r.Merges {
		paths = append(paths, op.OutputPath)
	}
	for _, op := range r.DirectoryCopies {
		paths = append(paths, op.OutputPath)
	}
	return paths
}

// IsEmpty reports whether the scan found nothing to synthesize
func (r *ScanResult) IsEmpty() bool {
	return len(r.Merges) == 0 && len(r.DirectoryCopies) == 0
}

// MergeResult reports the outcome of one merge operation. Skipped is set
// when neither source exists, which is not an error. Changed is false
// when the output already held the merged content byte for byte.
type MergeResult struct {
	Operation MergeOperation
	Success   bool
	Changed   bool
	Skipped   bool
	Err       error
}

// CopyResult reports the outcome of one directory copy
type CopyResult struct {
	Operation      DirectoryCopyOperation
	Success        bool
	Changed        bool
	FilesWritten   int
	FilesUnchanged int
	Err            error
}

// ReconcileResult reports the outcome of one stale-output reconciliation
// pass. Rename failures are collected rather than aborting the pass.
type ReconcileResult struct {
	RenamedFiles       []string
	RenamedDirectories []string
	Errors             []error
}
