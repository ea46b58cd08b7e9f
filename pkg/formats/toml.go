package formats

import (
	toml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

// tomlAdapter applies the structured deep-merge rules to TOML documents
type tomlAdapter struct{}

func init() {
	register(tomlAdapter{})
}

// Kind returns the format kind this adapter serves
func (tomlAdapter) Kind() types.FormatKind {
	return types.FormatTOML
}

// Parse decodes a TOML document into a map
func (tomlAdapter) Parse(data []byte) (interface{}, error) {
	value := map[string]interface{}{}
	if err := toml.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, errors.ErrFormatParse, "malformed TOML document")
	}
	return value, nil
}

// Merge applies the structured deep-merge rules
func (tomlAdapter) Merge(base, overlay interface{}) (interface{}, error) {
	return mergeValue(base, overlay)
}

// Serialize renders the value back to TOML
func (tomlAdapter) Serialize(value interface{}) ([]byte, error) {
	data, err := toml.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to serialize TOML")
	}
	return data, nil
}
