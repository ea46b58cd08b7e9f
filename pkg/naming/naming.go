// Package naming derives, from an annotated source name, whether the
// source is a base (fallback) payload, what output name it resolves to,
// and whether a sibling uses the legacy dotted-machine-name overlay
// convention.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dotsmith/pkg/filter"
)

// baseMarker is the literal infix/suffix marking a base source in the
// dotted convention, e.g. settings.base.json or gitconfig.base
const baseMarker = ".base"

// IsBaseSource reports whether the name designates a base source: either
// the group-stripped name carries a literal ".base" suffix or ".base."
// infix, or the name carries the {base} placeholder group (possibly
// combined with filter groups). Ordinary filter groups alone never make
// a base source.
func IsBaseSource(name string) bool {
	p := filter.Parse(name)
	if p.HasBasePlaceholder {
		return true
	}
	return hasBaseMarker(p.Canonical)
}

// hasBaseMarker checks the dotted convention on a group-stripped name
func hasBaseMarker(name string) bool {
	return strings.HasSuffix(name, baseMarker) || strings.Contains(name, baseMarker+".")
}

// CanonicalOutputName returns the name the synthesized output uses: all
// annotation groups stripped and the ".base" marker removed.
func CanonicalOutputName(name string) string {
	c := filter.Parse(name).Canonical
	if strings.HasSuffix(c, baseMarker) {
		return c[:len(c)-len(baseMarker)]
	}
	if i := strings.LastIndex(c, baseMarker+"."); i >= 0 {
		return c[:i] + c[i+len(baseMarker):]
	}
	return c
}

// ExpandBasePlaceholder resolves every {base} group by self-reference:
// each occurrence is replaced with the portion of the name preceding the
// first '{', with any trailing separator stripped. Names without the
// placeholder are returned unchanged.
func ExpandBasePlaceholder(name string) string {
	open := strings.IndexByte(name, '{')
	if open < 0 {
		return name
	}
	prefix := strings.TrimSuffix(name[:open], ".")
	return replaceFold(name, "{base}", prefix)
}

// replaceFold replaces every case-insensitive occurrence of old in s
func replaceFold(s, old, new string) string {
	var b strings.Builder
	lower := strings.ToLower(s)
	old = strings.ToLower(old)
	for {
		i := strings.Index(lower, old)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(new)
		s = s[i+len(old):]
		lower = lower[i+len(old):]
	}
}

// MatchLegacyOverlay reports whether name follows the legacy dotted
// machine-name convention for the given output name: stem.<machine>.ext
// where outputName is stem+ext. The machine token must be a single
// dot-free segment and is returned for matching against the context.
// The convention is only meaningful for names with no annotation groups;
// callers are expected to have classified those already.
func MatchLegacyOverlay(name, outputName string) (string, bool) {
	ext := filepath.Ext(outputName)
	stem := strings.TrimSuffix(outputName, ext)

	if !strings.HasPrefix(name, stem+".") {
		return "", false
	}
	middle := name[len(stem)+1:]
	if ext != "" {
		if !strings.HasSuffix(middle, ext) {
			return "", false
		}
		middle = middle[:len(middle)-len(ext)]
	}
	if middle == "" || strings.Contains(middle, ".") {
		return "", false
	}
	if strings.EqualFold(middle, "base") {
		return "", false
	}
	return middle, true
}
