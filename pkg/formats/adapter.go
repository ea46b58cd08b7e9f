// Package formats provides the per-format merge strategies used by the
// merge executor. Each adapter knows how to parse a payload, merge a
// base value with an overlay value, and serialize the result. Adapters
// are held in a small closed registry keyed by format kind, with kinds
// recognized from name suffixes.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// Adapter is one pluggable merge strategy
type Adapter interface {
	// Kind returns the format kind this adapter serves
	Kind() types.FormatKind
	// Parse decodes a payload into the adapter's value representation
	Parse(data []byte) (interface{}, error)
	// Merge combines a base value with an overlay value
	Merge(base, overlay interface{}) (interface{}, error)
	// Serialize encodes a value back to bytes
	Serialize(value interface{}) ([]byte, error)
}

// registry holds the closed adapter set
var registry = map[types.FormatKind]Adapter{}

// register adds an adapter to the registry; called from adapter init
func register(a Adapter) {
	registry[a.Kind()] = a
}

// Get returns the adapter for a format kind
func Get(kind types.FormatKind) (Adapter, error) {
	a, ok := registry[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no format adapter registered for %q", kind)
	}
	return a, nil
}

// KindForName maps an output name to its format kind by suffix. Unknown
// suffixes fall back to text append, the only merge that cannot
// misinterpret an unknown format.
func KindForName(name string) types.FormatKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		return types.FormatJSON
	case ".yaml", ".yml":
		return types.FormatYAML
	case ".toml":
		return types.FormatTOML
	case ".env", ".properties", ".conf", ".ini":
		return types.FormatKeyValue
	default:
		return types.FormatText
	}
}
