package cf

import "fmt"

// MapIToMapS rewrites an interface-keyed map (as produced by some YAML
// decoders) into a string-keyed map, recursively.
func MapIToMapS(in map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range in {
		out[fmt.Sprintf("%v", k)] = normalize(v)
	}
	return out
}

func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		return MapIToMapS(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
