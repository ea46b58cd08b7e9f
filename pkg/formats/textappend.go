package formats

import (
	"strings"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// textAdapter merges prose payloads by concatenation: the right-trimmed
// base, a blank-line separator, then the trimmed overlay. It also serves
// as the fallback for unrecognized suffixes.
type textAdapter struct{}

func init() {
	register(textAdapter{})
}

// Kind returns the format kind this adapter serves
func (textAdapter) Kind() types.FormatKind {
	return types.FormatText
}

// Parse keeps the payload as a string
func (textAdapter) Parse(data []byte) (interface{}, error) {
	return string(data), nil
}

// Merge concatenates base and overlay with a blank-line separator. An
// empty side yields the other side verbatim; both empty yields a single
// newline.
func (textAdapter) Merge(base, overlay interface{}) (interface{}, error) {
	baseText, ok := base.(string)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "text merge on non-string base")
	}
	overlayText, ok := overlay.(string)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "text merge on non-string overlay")
	}

	trimmedBase := strings.TrimRightFunc(baseText, isSpace)
	trimmedOverlay := strings.TrimSpace(overlayText)

	switch {
	case trimmedBase == "" && trimmedOverlay == "":
		return "\n", nil
	case trimmedBase == "":
		return overlayText, nil
	case trimmedOverlay == "":
		return baseText, nil
	}
	return trimmedBase + "\n\n" + trimmedOverlay, nil
}

// Serialize ensures a single trailing newline
func (textAdapter) Serialize(value interface{}) ([]byte, error) {
	text, ok := value.(string)
	if !ok {
		return nil, errors.New(errors.ErrInternal, "text serialize on non-string value")
	}
	return []byte(strings.TrimRight(text, "\n") + "\n"), nil
}

// isSpace matches the whitespace runes trimmed off the base
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
