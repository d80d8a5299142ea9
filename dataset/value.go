package dataset

import (
	"fmt"
	"strconv"
)

// IsNull reports whether a cell is missing.
func IsNull(v any) bool {
	return v == nil
}

// AsFloat converts a numeric cell to float64. Strings are not coerced.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// AsString renders a cell as a string. Nil cells return false.
func AsString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", x), true
	}
}
