package document

// Object is a read-only view over one decoded JSON object. Getters report
// whether the key was present with the requested shape, so callers can treat
// absence as normal control flow.
type Object map[string]any

// AsObject returns v as an Object when it is a JSON object.
func AsObject(v any) (Object, bool) {
	switch o := v.(type) {
	case map[string]any:
		return Object(o), true
	case Object:
		return o, true
	}
	return nil, false
}

// Has reports whether key is present, whatever its value.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Value returns the raw decoded value for key. A JSON null is reported as
// absent.
func (o Object) Value(key string) (any, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns key as a string.
func (o Object) String(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

// Bool returns key as a bool.
func (o Object) Bool(key string) (bool, bool) {
	b, ok := o[key].(bool)
	return b, ok
}

// Number returns key as a float64.
func (o Object) Number(key string) (float64, bool) {
	n, ok := o[key].(float64)
	return n, ok
}

// Child returns key as a nested Object.
func (o Object) Child(key string) (Object, bool) {
	return AsObject(o[key])
}

// Array returns key as a JSON array.
func (o Object) Array(key string) ([]any, bool) {
	a, ok := o[key].([]any)
	return a, ok
}

// Path descends through nested objects one key at a time. It stops with
// false at the first key that is missing or not an object.
func (o Object) Path(keys ...string) (Object, bool) {
	cur := o
	for _, k := range keys {
		next, ok := cur.Child(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Objects returns the object elements of the array at key, skipping any
// element that is not an object.
func (o Object) Objects(key string) []Object {
	arr, _ := o.Array(key)
	out := make([]Object, 0, len(arr))
	for _, v := range arr {
		if obj, ok := AsObject(v); ok {
			out = append(out, obj)
		}
	}
	return out
}
