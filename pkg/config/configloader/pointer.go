package configloader

import "reflect"

// newPointee returns a freshly allocated value when T is a pointer type.
func newPointee[T any]() (T, bool) {
	var zero T
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Pointer {
		return zero, false
	}
	v, ok := reflect.New(rt.Elem()).Interface().(T)
	return v, ok
}
