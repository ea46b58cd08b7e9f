package formats

import (
	"strings"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// kvPair is one key=value entry
type kvPair struct {
	Key   string
	Value string
}

// kvDocument is an order-preserving string-to-string map
type kvDocument struct {
	pairs []kvPair
	index map[string]int
}

// keyValueAdapter merges line-oriented key=value files. Blank lines and
// full-line comments are skipped on parse, matched quotes are removed,
// and merging is a plain upsert: overlay values overwrite the same key
// in place, novel overlay keys are appended at the end.
type keyValueAdapter struct{}

func init() {
	register(keyValueAdapter{})
}

// Kind returns the format kind this adapter serves
func (keyValueAdapter) Kind() types.FormatKind {
	return types.FormatKeyValue
}

// Parse decodes key=value lines into an ordered document
func (keyValueAdapter) Parse(data []byte) (interface{}, error) {
	doc := &kvDocument{index: make(map[string]int)}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		eq := strings.IndexByte(trimmed, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:eq])
		value := unquote(strings.TrimSpace(trimmed[eq+1:]))
		if key == "" {
			continue
		}
		doc.set(key, value)
	}
	return doc, nil
}

// Merge upserts every overlay pair into the base document
func (keyValueAdapter) Merge(base, overlay interface{}) (interface{}, error) {
	baseDoc, ok := base.(*kvDocument)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "key-value merge on non key-value base")
	}
	overlayDoc, ok := overlay.(*kvDocument)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "key-value merge on non key-value overlay")
	}

	merged := &kvDocument{index: make(map[string]int, len(baseDoc.pairs))}
	for _, p := range baseDoc.pairs {
		merged.set(p.Key, p.Value)
	}
	for _, p := range overlayDoc.pairs {
		merged.set(p.Key, p.Value)
	}
	return merged, nil
}

// Serialize renders the document, quoting only values that contain
// whitespace or a comment-delimiter character
func (keyValueAdapter) Serialize(value interface{}) ([]byte, error) {
	doc, ok := value.(*kvDocument)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "key-value serialize on non key-value document")
	}
	var b strings.Builder
	for _, p := range doc.pairs {
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(p.Value))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// set upserts one pair, preserving the position of existing keys
func (d *kvDocument) set(key, value string) {
	if i, ok := d.index[key]; ok {
		d.pairs[i].Value = value
		return
	}
	d.index[key] = len(d.pairs)
	d.pairs = append(d.pairs, kvPair{Key: key, Value: value})
}

// get returns the value for a key
func (d *kvDocument) get(key string) (string, bool) {
	i, ok := d.index[key]
	if !ok {
		return "", false
	}
	return d.pairs[i].Value, true
}

// unquote strips one pair of matched single or double quotes
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// quoteIfNeeded wraps values containing whitespace or a comment
// delimiter in quotes so they survive a later parse
func quoteIfNeeded(s string) string {
	if !strings.ContainsAny(s, " \t#;") {
		return s
	}
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
