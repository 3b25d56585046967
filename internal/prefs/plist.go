package prefs

import (
	"fmt"
	"math"
	"time"
)

// NormalizePlist returns a deep copy of v in canonical property-list form:
// []byte, string, int64, float64, bool, time.Time (UTC), []any and
// map[string]any, nested arbitrarily. Narrower integer and float types are
// widened and a few common typed slices and maps are accepted. Any other
// content, including nil elements, yields ErrNotPlist.
func NormalizePlist(v any) (any, error) {
	return normalize(v, "")
}

func normalize(v any, path string) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return append([]byte{}, x...), nil
	case bool:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return unsigned(uint64(x), path)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return unsigned(x, path)
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case time.Time:
		return x.UTC(), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := normalize(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case []int64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := normalize(e, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = e
		}
		return out, nil
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %T", ErrNotPlist, v)
	}
	return nil, fmt.Errorf("%w: %T at %s", ErrNotPlist, v, path)
}

func unsigned(u uint64, path string) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: integer %d overflows int64 at %q", ErrNotPlist, u, path)
	}
	return int64(u), nil
}
