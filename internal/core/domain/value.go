package domain

import "errors"

var (
	// ErrUnavailable marks a characteristic whose source snapshot could not be fetched
	ErrUnavailable = errors.New("inverter data unavailable")
	// ErrNoData marks a characteristic before its first poll completed
	ErrNoData = errors.New("no data polled yet")
	// ErrNotApplicable marks a characteristic that the metering kind does not provide
	ErrNotApplicable = errors.New("not applicable for metering kind")
)

// Optional is a value that may be absent on the wire. Defaults are chosen by
// the caller with Or, never stored in the value itself.
type Optional[T any] struct {
	value T
	valid bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// OptionalFromPtr maps a nullable JSON field to an Optional.
func OptionalFromPtr[T any](v *T) Optional[T] {
	if v == nil {
		return None[T]()
	}
	return Some(*v)
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

func (o Optional[T]) Valid() bool {
	return o.valid
}

func (o Optional[T]) Or(def T) T {
	if o.valid {
		return o.value
	}
	return def
}

// Value holds exactly one of a concrete characteristic value or an error.
type Value[T bool | float64] struct {
	value T
	err   error
}

func Ok[T bool | float64](v T) Value[T] {
	return Value[T]{value: v}
}

// Err builds an error Value. A nil err is replaced by ErrUnavailable so the
// value is never left without either side.
func Err[T bool | float64](err error) Value[T] {
	if err == nil {
		err = ErrUnavailable
	}
	return Value[T]{err: err}
}

func (v Value[T]) Get() (T, error) {
	return v.value, v.err
}

func (v Value[T]) Err() error {
	return v.err
}

func (v Value[T]) IsErr() bool {
	return v.err != nil
}

// Any returns the value, or nil when in the error state.
func (v Value[T]) Any() any {
	if v.err != nil {
		return nil
	}
	return v.value
}
