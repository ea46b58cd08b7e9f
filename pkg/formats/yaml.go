package formats

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// yamlAdapter applies the structured deep-merge rules to YAML documents
type yamlAdapter struct{}

func init() {
	register(yamlAdapter{})
}

// Kind returns the format kind this adapter serves
func (yamlAdapter) Kind() types.FormatKind {
	return types.FormatYAML
}

// Parse decodes a YAML document. YAML tolerates comments natively; they
// are not reproduced on output.
func (yamlAdapter) Parse(data []byte) (interface{}, error) {
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, errors.ErrFormatParse, "malformed YAML document")
	}
	return value, nil
}

// Merge applies the structured deep-merge rules
func (yamlAdapter) Merge(base, overlay interface{}) (interface{}, error) {
	return mergeValue(base, overlay)
}

// Serialize renders the value with 2-space indentation
func (yamlAdapter) Serialize(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to serialize YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to serialize YAML")
	}
	return buf.Bytes(), nil
}
