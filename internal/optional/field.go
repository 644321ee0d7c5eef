// Package optional provides Field, a three-state value slot used by partial
// updates: a field is either omitted (leave the column unchanged), explicitly
// null (write NULL) or set to a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds an optional value. The zero Field is omitted.
//
// When decoded from JSON, a key that is absent from the document leaves the
// Field omitted, a literal null marks it as null and any other value sets it.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Of returns a Field set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a Field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// FromPtr returns Null for a nil pointer and Of(*p) otherwise.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Null[T]()
	}
	return Of(*p)
}

// IsSet reports whether the field was provided, either as a value or as null.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field was explicitly set to null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and true when the field holds a non-null value.
func (f Field[T]) Get() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// SQLArg returns the argument to bind for a set field: nil for null,
// the value otherwise.
func (f Field[T]) SQLArg() any {
	if f.null {
		return nil
	}
	return f.value
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON implements json.Marshaler. Omitted and null fields both encode as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
