package formats

import (
	"fmt"
	"strconv"

	"github.com/arthur-debert/dotsmith/pkg/errors"
)

// mergeValue implements the structured deep merge shared by the JSON,
// YAML and TOML adapters. For matching keys, maps recurse, arrays follow
// the primitive-array rule, and anything else is won outright by the
// overlay (a null overlay value included).
func mergeValue(base, overlay interface{}) (interface{}, error) {
	baseMap, baseIsMap := base.(map[string]interface{})
	overlayMap, overlayIsMap := overlay.(map[string]interface{})
	if baseIsMap && overlayIsMap {
		return mergeMaps(baseMap, overlayMap)
	}

	baseArr, baseIsArr := base.([]interface{})
	overlayArr, overlayIsArr := overlay.([]interface{})
	if baseIsArr && overlayIsArr {
		return mergeArrays(baseArr, overlayArr)
	}

	return overlay, nil
}

// mergeMaps recursively merges two maps
func mergeMaps(base, overlay map[string]interface{}) (map[string]interface{}, error) {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, ov := range overlay {
		bv, exists := merged[k]
		if !exists {
			merged[k] = ov
			continue
		}
		mv, err := mergeValue(bv, ov)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err), "key %q", k)
		}
		merged[k] = mv
	}
	return merged, nil
}

// mergeArrays produces the base elements in order, deduplicated, followed
// by the overlay elements not already present. Identity distinguishes by
// both type and value, so the number 1 and the string "1" are distinct
// entries. Arrays holding any non-primitive element refuse to merge.
func mergeArrays(base, overlay []interface{}) ([]interface{}, error) {
	for _, v := range base {
		if !isPrimitive(v) {
			return nil, errors.New(errors.ErrArrayMerge,
				"cannot merge arrays containing non-primitive elements")
		}
	}
	for _, v := range overlay {
		if !isPrimitive(v) {
			return nil, errors.New(errors.ErrArrayMerge,
				"cannot merge arrays containing non-primitive elements")
		}
	}

	seen := make(map[primitiveKey]bool, len(base)+len(overlay))
	merged := make([]interface{}, 0, len(base)+len(overlay))
	for _, v := range base {
		k := keyFor(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, v)
	}
	for _, v := range overlay {
		k := keyFor(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, v)
	}
	return merged, nil
}

// primitiveKey identifies a primitive by type class and value
type primitiveKey struct {
	class string
	repr  string
}

// isPrimitive reports whether v is a scalar: string, number, boolean or
// null. Maps and arrays are not primitives.
func isPrimitive(v interface{}) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// keyFor computes the dedup identity of a primitive. Numeric values are
// normalized across integer and float representations so 1 and 1.0
// coincide, while remaining distinct from the string "1".
func keyFor(v interface{}) primitiveKey {
	switch n := v.(type) {
	case nil:
		return primitiveKey{class: "null"}
	case bool:
		return primitiveKey{class: "bool", repr: strconv.FormatBool(n)}
	case string:
		return primitiveKey{class: "string", repr: n}
	default:
		return primitiveKey{class: "number", repr: numberRepr(v)}
	}
}

// numberRepr renders any numeric type through float64
func numberRepr(v interface{}) string {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return fmt.Sprintf("%v", v)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
