package internal

import "reflect"

// IsTypedNil reports whether v is nil, or a typed nil pointer, slice, map,
// func, chan, or interface stored in a non-nil interface value.
func IsTypedNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
