package formats

import (
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/ohler55/ojg/sen"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// jsonAdapter merges object-notation payloads. Parsing is tolerant:
// comments and trailing commas are accepted and never reproduced on
// output. Serialization is stable 2-space indentation with sorted keys
// and a single trailing newline.
type jsonAdapter struct{}

func init() {
	register(jsonAdapter{})
}

// Kind returns the format kind this adapter serves
func (jsonAdapter) Kind() types.FormatKind {
	return types.FormatJSON
}

// Parse decodes a JSON document, tolerating // and /* */ comments as
// well as trailing commas
func (jsonAdapter) Parse(data []byte) (interface{}, error) {
	value, err := sen.Parse(stripComments(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFormatParse, "malformed JSON document")
	}
	return value, nil
}

// Merge applies the structured deep-merge rules
func (jsonAdapter) Merge(base, overlay interface{}) (interface{}, error) {
	return mergeValue(base, overlay)
}

// Serialize renders the value with stable 2-space indentation
func (jsonAdapter) Serialize(value interface{}) ([]byte, error) {
	opts := ojg.Options{Indent: 2, Sort: true}
	return append([]byte(oj.JSON(value, &opts)), '\n'), nil
}

// stripComments removes // line comments and /* */ block comments
// outside of string literals. The sen parser already treats commas as
// optional, which covers trailing commas.
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(data) {
			switch data[i+1] {
			case '/':
				for i < len(data) && data[i] != '\n' {
					i++
				}
				if i < len(data) {
					out = append(out, '\n')
				}
				continue
			case '*':
				i += 2
				for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
					i++
				}
				i++ // skip the closing slash, loop skips the star
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
