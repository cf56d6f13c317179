package cf

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Load binds the values in data onto the exported fields of the struct
// pointed to by cf. Keys come from the 'cf' field tag, falling back to the
// field name. Keys absent from data leave their fields untouched, so the
// struct's existing values act as defaults.
func Load(data map[string]interface{}, cf interface{}) error {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return errors.Errorf("cf type [%s] not struct", cfV.Type())
	}
	for i := 0; i < cfV.NumField(); i++ {
		if !cfV.Field(i).CanInterface() || !cfV.Field(i).CanSet() {
			continue
		}
		key := keyName(cfV.Type().Field(i))
		v, found := data[key]
		if !found {
			continue
		}
		if err := bindValue(cfV.Field(i), v); err != nil {
			return errors.WithMessagef(err, "field '%s'", key)
		}
	}
	return nil
}

func bindValue(field reflect.Value, v interface{}) error {
	switch field.Interface().(type) {
	case int:
		switch j := v.(type) {
		case int:
			field.SetInt(int64(j))
		case int64:
			field.SetInt(j)
		default:
			return typeMismatch(field, v)
		}

	case int64:
		switch j := v.(type) {
		case int:
			field.SetInt(int64(j))
		case int64:
			field.SetInt(j)
		default:
			return typeMismatch(field, v)
		}

	case float64:
		switch f := v.(type) {
		case float64:
			field.SetFloat(f)
		case int:
			field.SetFloat(float64(f))
		default:
			return typeMismatch(field, v)
		}

	case bool:
		if b, ok := v.(bool); ok {
			field.SetBool(b)
		} else {
			return typeMismatch(field, v)
		}

	case string:
		if s, ok := v.(string); ok {
			field.SetString(s)
		} else {
			return typeMismatch(field, v)
		}

	default:
		return errors.Errorf("unsupported field type [%s]", field.Type())
	}
	return nil
}

func typeMismatch(field reflect.Value, v interface{}) error {
	return errors.Errorf("type mismatch, got [%s], expected [%s]", reflect.TypeOf(v), field.Type())
}

// Section extracts a nested map from data, normalizing interface-keyed maps
// on the way out. A missing section yields an empty map.
func Section(data map[string]interface{}, key string) (map[string]interface{}, error) {
	v, found := data[key]
	if !found {
		return make(map[string]interface{}), nil
	}
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		return MapIToMapS(m), nil
	default:
		return nil, errors.Errorf("section '%s' is [%s], not a map", key, reflect.TypeOf(v))
	}
}

func Dump(label string, cf interface{}) string {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return ""
	}
	out := label + " {\n"
	format := fmt.Sprintf("\t%%-%ds %%v\n", maxKeyLength(cfV))
	for i := 0; i < cfV.NumField(); i++ {
		if cfV.Field(i).CanInterface() {
			key := keyName(cfV.Type().Field(i))
			out += fmt.Sprintf(format, key, cfV.Field(i).Interface())
		}
	}
	out += "}\n"
	return out
}

func keyName(v reflect.StructField) string {
	key := v.Name
	tag := v.Tag.Get("cf")
	if tag != "" {
		key = tag
	}
	return key
}

func maxKeyLength(cfV reflect.Value) int {
	maxKeyLength := 0
	for i := 0; i < cfV.NumField(); i++ {
		key := keyName(cfV.Type().Field(i))
		keyLength := len(key)
		if keyLength > maxKeyLength {
			maxKeyLength = keyLength
		}
	}
	return maxKeyLength
}
