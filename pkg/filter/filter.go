// Package filter implements the predicate language embedded in source
// names. A name may carry adjacent {key<op>value} groups which all have
// to hold against the host context (AND); the value of an equality group
// is a comma-separated OR-list. The {base} group is not a predicate but a
// placeholder marking the source as a base.
package filter

import (
	"strconv"
	"strings"
)

// Operator identifies one predicate kind
type Operator string

const (
	// OpEquals matches when the context value equals any entry of the
	// comma-separated value list (case-insensitive)
	OpEquals Operator = "="
	// OpNotEquals is the negation of OpEquals
	OpNotEquals Operator = "!="
	// OpWildcard matches a glob pattern where * spans any run of
	// characters; the match is anchored to the full context value
	OpWildcard Operator = "~"
	// OpRange matches when the context value falls inside an inclusive
	// range, numerically when possible and lexicographically otherwise
	OpRange Operator = "^"
)

// Filter is one parsed predicate clause
type Filter struct {
	Key   string
	Op    Operator
	Value string
	// Raw is the original group text including braces, kept for
	// error reporting
	Raw string
}

// Parsed is the result of decomposing an annotated name
type Parsed struct {
	// Filters holds the predicate groups in order of appearance; all
	// must hold for the name to match (a name with none always matches)
	Filters []Filter
	// Canonical is the name with every group removed and doubled
	// separators collapsed
	Canonical string
	// HasBasePlaceholder is true when the name carries a {base} group
	HasBasePlaceholder bool
	// Raw is the name as given
	Raw string
}

// basePlaceholder is the literal group content marking a base source
const basePlaceholder = "base"

// contextValue is the lookup interface the evaluator needs; satisfied by
// platform.Context
type contextValue interface {
	Lookup(key string) (string, bool)
}

// Parse decomposes a single path component into its filter groups and
// canonical name. Brace groups that carry no recognized operator and are
// not the base placeholder are left in place as literal name text.
func Parse(name string) Parsed {
	p := Parsed{Raw: name}

	var canonical strings.Builder
	rest := name
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			canonical.WriteString(rest)
			break
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			// Unterminated group, treat the remainder as literal
			canonical.WriteString(rest)
			break
		}
		close += open
		body := rest[open+1 : close]
		raw := rest[open : close+1]

		canonical.WriteString(rest[:open])
		rest = rest[close+1:]

		if strings.EqualFold(body, basePlaceholder) {
			p.HasBasePlaceholder = true
			continue
		}
		if f, ok := parseGroup(body, raw); ok {
			p.Filters = append(p.Filters, f)
			continue
		}
		// Not an annotation after all, keep it in the name
		canonical.WriteString(raw)
	}

	p.Canonical = collapseSeparators(canonical.String())
	return p
}

// parseGroup splits one group body into key, operator and value
func parseGroup(body, raw string) (Filter, bool) {
	ops := []Operator{OpNotEquals, OpEquals, OpWildcard, OpRange}
	best := -1
	var bestOp Operator
	for _, op := range ops {
		i := strings.Index(body, string(op))
		if i <= 0 {
			continue
		}
		// != contains =, make sure a= b!=c picks the earliest full token
		if best == -1 || i < best || (i == best && len(op) > len(bestOp)) {
			best = i
			bestOp = op
		}
	}
	if best == -1 {
		return Filter{}, false
	}
	key := strings.TrimSpace(body[:best])
	value := strings.TrimSpace(body[best+len(bestOp):])
	if key == "" {
		return Filter{}, false
	}
	return Filter{Key: key, Op: bestOp, Value: value, Raw: raw}, true
}

// collapseSeparators removes the doubled dots left behind by stripping a
// group that sat between two separators, and any trailing dot
func collapseSeparators(name string) string {
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	return strings.TrimSuffix(name, ".")
}

// Evaluate applies every filter against the context. It returns true only
// when all filters hold, along with the filters that failed. A filter
// whose key is absent from the context always fails.
func Evaluate(filters []Filter, ctx contextValue) (bool, []Filter) {
	var failed []Filter
	for _, f := range filters {
		if !evaluateOne(f, ctx) {
			failed = append(failed, f)
		}
	}
	return len(failed) == 0, failed
}

// evaluateOne applies a single predicate
func evaluateOne(f Filter, ctx contextValue) bool {
	val, ok := ctx.Lookup(f.Key)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEquals:
		return matchAny(f.Value, val)
	case OpNotEquals:
		return !matchAny(f.Value, val)
	case OpWildcard:
		return globMatch(f.Value, val)
	case OpRange:
		return rangeMatch(f.Value, val)
	}
	return false
}

// matchAny checks the context value against a comma-separated OR-list
func matchAny(list, val string) bool {
	for _, candidate := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(candidate), val) {
			return true
		}
	}
	return false
}

// globMatch performs an anchored, case-insensitive match where * spans
// any run of characters
func globMatch(pattern, val string) bool {
	pattern = strings.ToLower(pattern)
	val = strings.ToLower(val)

	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == val
	}

	if !strings.HasPrefix(val, parts[0]) {
		return false
	}
	val = val[len(parts[0]):]

	last := parts[len(parts)-1]
	if !strings.HasSuffix(val, last) {
		return false
	}
	val = val[:len(val)-len(last)]

	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		i := strings.Index(val, mid)
		if i < 0 {
			return false
		}
		val = val[i+len(mid):]
	}
	return true
}

// rangeMatch checks an inclusive low-high range. The bounds are split on
// the first dash. When both bounds and the context value parse as
// numbers the comparison is numeric, otherwise it falls back to
// case-insensitive lexicographic ordering. The fallback is observable
// behavior for version-like strings and must be preserved.
func rangeMatch(bounds, val string) bool {
	dash := strings.IndexByte(bounds, '-')
	if dash < 0 {
		return false
	}
	lo := strings.TrimSpace(bounds[:dash])
	hi := strings.TrimSpace(bounds[dash+1:])

	loN, loOK := parseNumber(lo)
	hiN, hiOK := parseNumber(hi)
	valN, valOK := parseNumber(val)
	if loOK && hiOK && valOK {
		return loN <= valN && valN <= hiN
	}

	v := strings.ToLower(val)
	return strings.ToLower(lo) <= v && v <= strings.ToLower(hi)
}

// parseNumber accepts anything strconv can read as a float
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}
