package models

import "encoding/json"

// JSONValue is a generic type to represent any JSON value.
// It holds one of: string, json.Number, bool, nil (JSON null),
// JSONObject or JSONArray.
type JSONValue interface{}

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value JSONValue
}

// JSONObject represents a JSON object. Members keep their document order and
// keys are unique.
type JSONObject []Member

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// Kind names the type of a JSONValue. The same names are used as the declared
// type of user input in add and edit forms.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Kinds lists every kind in the order forms offer them.
var Kinds = []Kind{KindString, KindNumber, KindBoolean, KindNull, KindObject, KindArray}

// IsContainer reports whether values of this kind hold children.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindArray
}

// KindOf returns the kind of v. Values outside the JSONValue domain report
// an empty Kind.
func KindOf(v JSONValue) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case json.Number:
		return KindNumber
	case bool:
		return KindBoolean
	case JSONObject:
		return KindObject
	case JSONArray:
		return KindArray
	default:
		return ""
	}
}

// IndexOf returns the position of key, or -1.
func (o JSONObject) IndexOf(key string) int {
	for i, m := range o {
		if m.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (o JSONObject) Get(key string) (JSONValue, bool) {
	if i := o.IndexOf(key); i >= 0 {
		return o[i].Value, true
	}
	return nil, false
}

// Keys returns the keys in document order.
func (o JSONObject) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Set returns an object with key bound to v. An existing key keeps its
// position; a new key is appended. The receiver is not modified.
func (o JSONObject) Set(key string, v JSONValue) JSONObject {
	out := make(JSONObject, len(o), len(o)+1)
	copy(out, o)
	if i := out.IndexOf(key); i >= 0 {
		out[i].Value = v
		return out
	}
	return append(out, Member{Key: key, Value: v})
}

// Clone returns a deep copy of v.
func Clone(v JSONValue) JSONValue {
	switch t := v.(type) {
	case JSONObject:
		out := make(JSONObject, len(t))
		for i, m := range t {
			out[i] = Member{Key: m.Key, Value: Clone(m.Value)}
		}
		return out
	case JSONArray:
		out := make(JSONArray, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether a and b are structurally identical, including the
// order of object keys. Numbers compare by their literal text.
func Equal(a, b JSONValue) bool {
	switch x := a.(type) {
	case JSONObject:
		y, ok := b.(JSONObject)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Key != y[i].Key || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case JSONArray:
		y, ok := b.(JSONArray)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	case string, json.Number, bool:
		return a == b
	default:
		return false
	}
}

// Len returns the number of children of a container, or 0 for scalars.
func Len(v JSONValue) int {
	switch t := v.(type) {
	case JSONObject:
		return len(t)
	case JSONArray:
		return len(t)
	default:
		return 0
	}
}
