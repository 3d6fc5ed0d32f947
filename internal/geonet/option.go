package geonet

// Option holds a value or nothing. The zero value is empty.
type Option[T comparable] struct {
	value T
	ok    bool
}

// Some wraps v.
func Some[T comparable](v T) Option[T] { return Option[T]{value: v, ok: true} }

// None returns an empty option.
func None[T comparable]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

func (o Option[T]) IsPresent() bool { return o.ok }

// OrElse returns the value or def when empty.
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
