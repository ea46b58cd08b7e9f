package formats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsmith/pkg/errors"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

func TestJSONAdapter_ParseToleratesCommentsAndTrailingCommas(t *testing.T) {
	input := `// effective editor settings
{
  "tabSize": 2, /* spaces, not tabs */
  "plugins": ["plugin-a", "plugin-b",],
}
`
	adapter, err := Get(types.FormatJSON)
	require.NoError(t, err)

	value, err := adapter.Parse([]byte(input))
	require.NoError(t, err)

	m, ok := value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(2), m["tabSize"])
	assert.Equal(t, []interface{}{"plugin-a", "plugin-b"}, m["plugins"])
}

func TestJSONAdapter_RoundTrip(t *testing.T) {
	// serialize(parse(x)) keeps keys and values regardless of comments
	// or trailing commas in the input
	input := `{
  // comment
  "b": [1, "1", true, null,],
  "a": {"nested": 1.5},
}`
	adapter, err := Get(types.FormatJSON)
	require.NoError(t, err)

	value, err := adapter.Parse([]byte(input))
	require.NoError(t, err)
	out, err := adapter.Serialize(value)
	require.NoError(t, err)

	again, err := adapter.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, value, again)

	text := string(out)
	assert.True(t, strings.HasSuffix(text, "\n"), "output ends with a newline")
	assert.False(t, strings.HasSuffix(text, "\n\n"), "single trailing newline only")
	assert.NotContains(t, text, "//", "comments are never reproduced")
}

func TestJSONAdapter_SerializeIsStable(t *testing.T) {
	adapter, err := Get(types.FormatJSON)
	require.NoError(t, err)

	value := map[string]interface{}{"b": int64(2), "a": int64(1)}
	first, err := adapter.Serialize(value)
	require.NoError(t, err)
	second, err := adapter.Serialize(value)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), "  \"a\"", "2-space indentation")
}

func TestJSONAdapter_MalformedInput(t *testing.T) {
	adapter, err := Get(types.FormatJSON)
	require.NoError(t, err)

	_, err = adapter.Parse([]byte(`{"a": [}`))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFormatParse))
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line comment", "a // gone\nb", "a \nb"},
		{"block comment", "a /* gone */ b", "a  b"},
		{"slashes inside strings survive", `{"url": "http://x"}`, `{"url": "http://x"}`},
		{"comment chars inside strings survive", `{"a": "/* keep */"}`, `{"a": "/* keep */"}`},
		{"escaped quote does not end the string", `{"a": "\" // keep"}`, `{"a": "\" // keep"}`},
		{"unterminated block comment", "a /* gone", "a "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stripComments([]byte(tt.input))))
		})
	}
}

func TestYAMLAdapter_MergeAndSerialize(t *testing.T) {
	adapter, err := Get(types.FormatYAML)
	require.NoError(t, err)

	base, err := adapter.Parse([]byte("tabSize: 4\nplugins:\n  - a\n  - b\n"))
	require.NoError(t, err)
	overlay, err := adapter.Parse([]byte("tabSize: 2\nplugins:\n  - c\n  - a\n"))
	require.NoError(t, err)

	merged, err := adapter.Merge(base, overlay)
	require.NoError(t, err)
	out, err := adapter.Serialize(merged)
	require.NoError(t, err)

	again, err := adapter.Parse(out)
	require.NoError(t, err)
	m := again.(map[string]interface{})
	assert.Equal(t, 2, m["tabSize"])
	assert.Equal(t, []interface{}{"a", "b", "c"}, m["plugins"])
}

func TestTOMLAdapter_MergeAndSerialize(t *testing.T) {
	adapter, err := Get(types.FormatTOML)
	require.NoError(t, err)

	base, err := adapter.Parse([]byte("title = \"base\"\n\n[owner]\nname = \"alice\"\n"))
	require.NoError(t, err)
	overlay, err := adapter.Parse([]byte("[owner]\nname = \"bob\"\n"))
	require.NoError(t, err)

	merged, err := adapter.Merge(base, overlay)
	require.NoError(t, err)
	out, err := adapter.Serialize(merged)
	require.NoError(t, err)

	again, err := adapter.Parse(out)
	require.NoError(t, err)
	m := again.(map[string]interface{})
	assert.Equal(t, "base", m["title"])
	assert.Equal(t, "bob", m["owner"].(map[string]interface{})["name"])
}
