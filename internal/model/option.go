package model

import (
	"bytes"
	"encoding/json"
)

// Option holds a value that may be absent.
// It encodes to JSON null when empty.
type Option[T any] struct {
	value T
	set   bool
}

// Some wraps v as a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Option[T]) IsSome() bool { return o.set }

// OrElse returns the value, or d when absent.
func (o Option[T]) OrElse(d T) T {
	if o.set {
		return o.value
	}
	return d
}

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Option[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
