package wamp

import "errors"

// Dict is a WAMP options/details/kwargs map: string keys, arbitrary values.
// It is an alias for the plain map type so that values built by router code
// and values decoded off the wire compare and type-assert identically.
type Dict = map[string]interface{}

// List is a WAMP positional argument list, aliased for the same reason.
type List = []interface{}

// NormalizeDict returns d, allocating an empty Dict if d is nil. The
// router normalizes Hello.Details this way before inspecting it so that
// missing-vs-empty details are not treated differently downstream.
func NormalizeDict(d Dict) Dict {
	if d == nil {
		return Dict{}
	}
	return d
}

// DictValue walks path through nested Dicts and returns the value found at
// the final key, or an error if any intermediate key is absent or not a
// Dict-like map.
func DictValue(d Dict, path []string) (interface{}, error) {
	var cur interface{} = d
	for _, key := range path {
		m, ok := asDict(cur)
		if !ok {
			return nil, errors.New("wamp: value at path is not a dict")
		}
		v, ok := m[key]
		if !ok {
			return nil, errors.New("wamp: missing key: " + key)
		}
		cur = v
	}
	return cur, nil
}

func asDict(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// OptionString returns the string value of key in d, or "" if absent or of
// the wrong type.
func OptionString(d Dict, key string) string {
	if v, ok := d[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// OptionBool returns the bool value of key in d, defaulting to def if
// absent or of the wrong type.
func OptionBool(d Dict, key string, def bool) bool {
	if v, ok := d[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// OptionID returns the ID value of key in d, tolerating any of the numeric
// representations the JSON and MessagePack codecs may produce.
func OptionID(d Dict, key string) ID {
	if v, ok := d[key]; ok {
		if id, ok := AsID(v); ok {
			return id
		}
	}
	return 0
}

// OptionInt64 returns the int64 value of key in d, tolerating any of the
// numeric representations the JSON and MessagePack codecs may produce.
func OptionInt64(d Dict, key string) int64 {
	if v, ok := d[key]; ok {
		if n, ok := AsInt64(v); ok {
			return n
		}
	}
	return 0
}

// OptionURI returns the URI value of key in d, or "" if absent or of the
// wrong type.
func OptionURI(d Dict, key string) URI {
	return URI(OptionString(d, key))
}

// AsID coerces v to an ID if it holds any numeric type the codecs produce.
func AsID(v interface{}) (ID, bool) {
	n, ok := AsInt64(v)
	if !ok {
		return 0, false
	}
	return ID(n), true
}

// AsInt64 coerces v to an int64 if it holds any numeric type the codecs
// produce (int, int64, uint64, float64).
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case ID:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
