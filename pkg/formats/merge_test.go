package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsmith/pkg/errors"
)

func TestMergeMaps_OverlayWins(t *testing.T) {
	base := map[string]interface{}{"a": int64(1), "b": int64(2)}
	overlay := map[string]interface{}{"b": int64(3), "c": int64(4)}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": int64(1), "b": int64(3), "c": int64(4)}, merged)
}

func TestMergeMaps_Recurses(t *testing.T) {
	base := map[string]interface{}{
		"editor": map[string]interface{}{"tabSize": int64(4), "wrap": true},
	}
	overlay := map[string]interface{}{
		"editor": map[string]interface{}{"tabSize": int64(2)},
	}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"editor": map[string]interface{}{"tabSize": int64(2), "wrap": true},
	}, merged)
}

func TestMergeMaps_NullOverlayWins(t *testing.T) {
	base := map[string]interface{}{"a": int64(1)}
	overlay := map[string]interface{}{"a": nil}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	m := merged.(map[string]interface{})
	v, present := m["a"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestMergeArrays_DedupPreservesBaseOrder(t *testing.T) {
	base := []interface{}{"plugin-a", "plugin-b"}
	overlay := []interface{}{"plugin-c", "plugin-a"}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"plugin-a", "plugin-b", "plugin-c"}, merged)
}

func TestMergeArrays_TypeDistinguishesIdentity(t *testing.T) {
	// The number 1 and the string "1" are distinct entries
	base := []interface{}{int64(1)}
	overlay := []interface{}{"1", int64(1)}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), "1"}, merged)
}

func TestMergeArrays_IntAndFloatCoincide(t *testing.T) {
	base := []interface{}{int64(1)}
	overlay := []interface{}{float64(1), float64(1.5)}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), float64(1.5)}, merged)
}

func TestMergeArrays_MixedPrimitives(t *testing.T) {
	base := []interface{}{true, nil, "x"}
	overlay := []interface{}{nil, false, "x"}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true, nil, "x", false}, merged)
}

func TestMergeArrays_NonPrimitiveElementFails(t *testing.T) {
	base := []interface{}{map[string]interface{}{"a": int64(1)}}
	overlay := []interface{}{map[string]interface{}{"b": int64(2)}}

	_, err := mergeValue(base, overlay)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrArrayMerge))
}

func TestMergeArrays_NonPrimitiveInsideMapFails(t *testing.T) {
	base := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"a": int64(1)}},
	}
	overlay := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{"b": int64(2)}},
	}

	_, err := mergeValue(base, overlay)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrArrayMerge))
}

func TestMergeValue_ScalarOverlayReplacesContainer(t *testing.T) {
	base := map[string]interface{}{"a": []interface{}{int64(1)}}
	overlay := map[string]interface{}{"a": "off"}

	merged, err := mergeValue(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "off"}, merged)
}
