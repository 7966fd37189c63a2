package payload

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// RemoveNullValues returns a copy of m without unset values.
// Unset means nil, a nil pointer, an empty map or an empty slice. Explicit zero
// values such as 0, "" and false are kept. Nested maps and slices are cleaned
// before the emptiness check, so a map that only held unset values is dropped too.
func RemoveNullValues(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		v = clean(v)
		if isUnset(v) {
			continue
		}

		out[k] = v
	}

	return out
}

func clean(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return RemoveNullValues(val)
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, clean(item))
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, 0, len(val))
		for _, item := range val {
			out = append(out, RemoveNullValues(item))
		}
		return out
	default:
		return v
	}
}

func isUnset(v interface{}) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	default:
		return false
	}
}

// FormatDuration renders d the way protobuf Duration is written in JSON:
// whole seconds as "7200s", fractions with trailing zeros trimmed as "1.5s".
func FormatDuration(d time.Duration) string {
	sec := int64(d / time.Second)
	nanos := int64(d % time.Second)
	if nanos == 0 {
		return fmt.Sprintf("%ds", sec)
	}

	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return fmt.Sprintf("%d.%ss", sec, frac)
}
