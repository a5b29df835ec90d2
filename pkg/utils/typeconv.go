package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToString coerces a loosely typed JSON value to a string.
// nil becomes the empty string.
func ToString(val interface{}) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToFloat converts a loosely typed value to float64. Strings are parsed
// as decimals; unparseable values yield 0, matching the permissive
// coercion the feed relies on for prices.
func ToFloat(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case []byte:
		return ToFloat(string(v))
	default:
		return 0
	}
}

// ToInt converts a loosely typed value to int, defaulting to 0.
func ToInt(val interface{}) int {
	switch v := val.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	case []byte:
		return ToInt(string(v))
	default:
		return 0
	}
}

// ToBool converts a loosely typed value to bool. Only a JSON true or
// the strings "true"/"1" count as true.
func ToBool(val interface{}) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}
