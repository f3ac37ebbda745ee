// Package serde defines the serialization capabilities used to turn typed
// keys into bytes and back. A capability is parameterized by the logical
// topic (stream) name the value belongs to; the topic never becomes part of
// the produced bytes.
package serde

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrTypeMismatch is returned when an untyped serde is narrowed to, or
	// used with, a type it was not built for.
	ErrTypeMismatch = errors.New("serde: type mismatch")
	// ErrInvalidLength is returned by fixed-width deserializers given the wrong number of bytes.
	ErrInvalidLength = errors.New("serde: invalid length")
	// ErrUnknownSerde is returned by ByName for names outside the registry.
	ErrUnknownSerde = errors.New("serde: unknown serde")
)

// Serializer converts a value of type T into bytes for the given topic.
type Serializer[T any] interface {
	Serialize(topic string, v T) ([]byte, error)
}

// Deserializer converts bytes produced for the given topic back into a T.
type Deserializer[T any] interface {
	Deserialize(topic string, data []byte) (T, error)
}

// SerializerFunc adapts a plain function to the Serializer interface.
type SerializerFunc[T any] func(topic string, v T) ([]byte, error)

func (f SerializerFunc[T]) Serialize(topic string, v T) ([]byte, error) { return f(topic, v) }

// DeserializerFunc adapts a plain function to the Deserializer interface.
type DeserializerFunc[T any] func(topic string, data []byte) (T, error)

func (f DeserializerFunc[T]) Deserialize(topic string, data []byte) (T, error) { return f(topic, data) }

// Serde pairs a Serializer with its Deserializer. Either half may be nil,
// which callers such as combinedkey.Schema treat as "use the context default".
type Serde[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}

// New builds a Serde from its two halves.
func New[T any](s Serializer[T], d Deserializer[T]) Serde[T] {
	return Serde[T]{Serializer: s, Deserializer: d}
}

// Complete reports whether both halves are set.
func (s Serde[T]) Complete() bool {
	return s.Serializer != nil && s.Deserializer != nil
}

// typed is implemented by the halves of an erased serde so that Narrow can
// check the target type once instead of at every call.
type typed interface {
	valueType() reflect.Type
}

type erasedSerializer[T any] struct{ inner Serializer[T] }

func (e erasedSerializer[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (e erasedSerializer[T]) Serialize(topic string, v any) ([]byte, error) {
	tv, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: cannot serialize %T as %s", ErrTypeMismatch, v, reflect.TypeFor[T]())
	}
	return e.inner.Serialize(topic, tv)
}

type erasedDeserializer[T any] struct{ inner Deserializer[T] }

func (e erasedDeserializer[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (e erasedDeserializer[T]) Deserialize(topic string, data []byte) (any, error) {
	return e.inner.Deserialize(topic, data)
}

// Erase turns a typed serde into an untyped one that still remembers T.
// Contexts expose their default key serde in this form.
func Erase[T any](s Serde[T]) Serde[any] {
	var out Serde[any]
	if s.Serializer != nil {
		out.Serializer = erasedSerializer[T]{inner: s.Serializer}
	}
	if s.Deserializer != nil {
		out.Deserializer = erasedDeserializer[T]{inner: s.Deserializer}
	}
	return out
}

// TypeOf returns the value type an erased serde was built for, or nil when
// it carries no type information.
func TypeOf(s Serde[any]) reflect.Type {
	if t, ok := s.Serializer.(typed); ok {
		return t.valueType()
	}
	if t, ok := s.Deserializer.(typed); ok {
		return t.valueType()
	}
	return nil
}

// Narrow converts an untyped serde into a Serde[T]. When the serde knows its
// value type the check happens here and a mismatch fails with ErrTypeMismatch.
// Serdes without type information are wrapped with per-call assertions that
// report the same error.
func Narrow[T any](s Serde[any]) (Serde[T], error) {
	want := reflect.TypeFor[T]()
	for _, half := range []any{s.Serializer, s.Deserializer} {
		t, ok := half.(typed)
		if !ok {
			continue
		}
		if got := t.valueType(); !assignable(got, want) {
			return Serde[T]{}, fmt.Errorf("%w: default serde handles %s, key type is %s", ErrTypeMismatch, got, want)
		}
	}

	var out Serde[T]
	if s.Serializer != nil {
		ser := s.Serializer
		if inner, ok := ser.(erasedSerializer[T]); ok {
			out.Serializer = inner.inner
		} else {
			out.Serializer = SerializerFunc[T](func(topic string, v T) ([]byte, error) {
				return ser.Serialize(topic, v)
			})
		}
	}
	if s.Deserializer != nil {
		deser := s.Deserializer
		if inner, ok := deser.(erasedDeserializer[T]); ok {
			out.Deserializer = inner.inner
		} else {
			out.Deserializer = DeserializerFunc[T](func(topic string, data []byte) (T, error) {
				var zero T
				v, err := deser.Deserialize(topic, data)
				if err != nil {
					return zero, err
				}
				tv, ok := v.(T)
				if !ok {
					return zero, fmt.Errorf("%w: deserialized %T, key type is %s", ErrTypeMismatch, v, want)
				}
				return tv, nil
			})
		}
	}
	return out, nil
}

func assignable(got, want reflect.Type) bool {
	if got == want {
		return true
	}
	return want.Kind() == reflect.Interface && got.Implements(want)
}
