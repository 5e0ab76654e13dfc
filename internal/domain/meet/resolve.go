package meet

// Resolution is the outcome of an ordered-fallback lookup: either a value
// found in one of the sources, or the default used when every source was empty.
type Resolution[T any] struct {
	// Value is the resolved value.
	Value T
	// Found is false when Value is the default.
	Found bool
}

// Found wraps a value taken from a source.
func Found[T any](value T) Resolution[T] {
	return Resolution[T]{Value: value, Found: true}
}

// Default wraps the fallback value.
func Default[T any](value T) Resolution[T] {
	return Resolution[T]{Value: value}
}

// Source yields a value and whether it was present.
type Source[T any] func() (T, bool)

// Resolve returns the value of the first source that has one, in order,
// and falls back to def otherwise.
func Resolve[T any](def T, sources ...Source[T]) Resolution[T] {
	for _, source := range sources {
		if source == nil {
			continue
		}

		if value, ok := source(); ok {
			return Found(value)
		}
	}

	return Default(def)
}

// OrderOf adapts an optional lot number to a Source.
func OrderOf(order *int) Source[int] {
	return func() (int, bool) {
		if order == nil {
			return 0, false
		}

		return *order, true
	}
}
