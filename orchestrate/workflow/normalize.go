package workflow

import "fmt"

// NormalizeMapping converts a loosely-typed params or context value into a
// plain map. Accepted shapes:
//
//   - nil: an empty map
//   - map[string]any: returned as-is (normalizing an already-normalized
//     mapping is a no-op)
//   - []any of two-element []any{key, value} pairs, keys being strings:
//     folded into a map, later pairs winning on key collision
//
// Anything else is rejected with an error the caller should surface as a
// validation failure.
func NormalizeMapping(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	case []any:
		out := make(map[string]any, len(m))
		for i, el := range m {
			pair, ok := el.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("element %d is not a [key, value] pair", i)
			}
			key, ok := pair[0].(string)
			if !ok {
				return nil, fmt.Errorf("element %d has a non-string key %v", i, pair[0])
			}
			out[key] = pair[1]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported mapping shape %T", v)
	}
}
