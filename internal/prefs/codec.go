package prefs

import (
	"encoding"
	"fmt"
)

// Encodable is implemented by custom objects that can archive themselves.
type Encodable = encoding.BinaryMarshaler

// Decodable constrains PT to a pointer to T that can unarchive into T.
type Decodable[T any] interface {
	*T
	encoding.BinaryUnmarshaler
}

// Archived adapts any CBOR-encodable Go value to Encodable and Decodable,
// so plain structs can be stored as custom objects without writing archival
// methods:
//
//	err := c.SetCustomObject("session", prefs.Archived[Session]{V: s})
//	a, err := prefs.CustomObject[prefs.Archived[Session]](c, "session")
type Archived[T any] struct {
	V T
}

func (a Archived[T]) MarshalBinary() ([]byte, error) {
	return encMode.Marshal(a.V)
}

func (a *Archived[T]) UnmarshalBinary(b []byte) error {
	return decMode.Unmarshal(b, &a.V)
}

func archive(key string, v Encodable) (val Value, err error) {
	if v == nil {
		return Value{}, fmt.Errorf("%w: key %q: nil value", ErrEncode, key)
	}
	// A typed nil pointer reaches MarshalBinary and may panic there.
	defer func() {
		if r := recover(); r != nil {
			val, err = Value{}, fmt.Errorf("%w: key %q: %v", ErrEncode, key, r)
		}
	}()
	b, err := v.MarshalBinary()
	if err != nil {
		return Value{}, fmt.Errorf("%w: key %q: %w", ErrEncode, key, err)
	}
	return BlobValue(b), nil
}

func unarchive[T any, PT Decodable[T]](key string, b []byte) (T, error) {
	var out T
	if err := PT(&out).UnmarshalBinary(b); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: key %q: %w", ErrDecode, key, err)
	}
	return out, nil
}
