package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsmith/pkg/types"
)

func mergeText(t *testing.T, base, overlay string) string {
	t.Helper()
	adapter, err := Get(types.FormatText)
	require.NoError(t, err)

	baseValue, err := adapter.Parse([]byte(base))
	require.NoError(t, err)
	overlayValue, err := adapter.Parse([]byte(overlay))
	require.NoError(t, err)

	merged, err := adapter.Merge(baseValue, overlayValue)
	require.NoError(t, err)
	out, err := adapter.Serialize(merged)
	require.NoError(t, err)
	return string(out)
}

func TestTextAdapter_Merge(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		overlay string
		want    string
	}{
		{
			name:    "both sides joined by a blank line",
			base:    "base content\n",
			overlay: "overlay content\n",
			want:    "base content\n\noverlay content\n",
		},
		{
			name:    "base trailing whitespace trimmed",
			base:    "base content\n\n\n",
			overlay: "  overlay content  \n",
			want:    "base content\n\noverlay content\n",
		},
		{
			name:    "empty base yields overlay",
			base:    "",
			overlay: "only overlay\n",
			want:    "only overlay\n",
		},
		{
			name:    "empty overlay yields base",
			base:    "only base\n",
			overlay: "",
			want:    "only base\n",
		},
		{
			name:    "both empty yields a single newline",
			base:    "",
			overlay: "",
			want:    "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeText(t, tt.base, tt.overlay))
		})
	}
}

func TestKindForName(t *testing.T) {
	tests := []struct {
		name string
		want types.FormatKind
	}{
		{"settings.json", types.FormatJSON},
		{"settings.jsonc", types.FormatJSON},
		{"config.yaml", types.FormatYAML},
		{"config.yml", types.FormatYAML},
		{"config.toml", types.FormatTOML},
		{"vars.env", types.FormatKeyValue},
		{"app.properties", types.FormatKeyValue},
		{"app.conf", types.FormatKeyValue},
		{"app.ini", types.FormatKeyValue},
		{"notes.md", types.FormatText},
		{"README", types.FormatText},
		{"script.unknownext", types.FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForName(tt.name))
		})
	}
}
