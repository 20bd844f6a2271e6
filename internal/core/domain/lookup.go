package domain

// Lookup is the result of a registry lookup: either Found with a value or NotFound.
// Callers collapse it to a default only at the public boundary.
type Lookup[T any] struct {
	value T
	found bool
}

// Found wraps a value that exists in the registry.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{value: v, found: true}
}

// NotFound reports a missing registry entry.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get returns the value and whether it was found.
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

// IsFound reports whether the lookup succeeded.
func (l Lookup[T]) IsFound() bool {
	return l.found
}

// OrElse returns the value if found, otherwise def.
func (l Lookup[T]) OrElse(def T) T {
	if l.found {
		return l.value
	}
	return def
}
