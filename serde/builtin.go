package serde

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// String serializes strings as their raw UTF-8 bytes. The empty string maps
// to zero bytes.
func String() Serde[string] {
	return New[string](
		SerializerFunc[string](func(_ string, v string) ([]byte, error) {
			return []byte(v), nil
		}),
		DeserializerFunc[string](func(_ string, data []byte) (string, error) {
			return string(data), nil
		}),
	)
}

// Int32 serializes int32 as 4 big-endian bytes.
func Int32() Serde[int32] {
	return New[int32](
		SerializerFunc[int32](func(_ string, v int32) ([]byte, error) {
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			return b, nil
		}),
		DeserializerFunc[int32](func(_ string, data []byte) (int32, error) {
			if len(data) != 4 {
				return 0, fmt.Errorf("%w: int32 needs 4 bytes, got %d", ErrInvalidLength, len(data))
			}
			return int32(binary.BigEndian.Uint32(data)), nil
		}),
	)
}

// Int64 serializes int64 as 8 big-endian bytes.
func Int64() Serde[int64] {
	return New[int64](
		SerializerFunc[int64](func(_ string, v int64) ([]byte, error) {
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, uint64(v))
			return b, nil
		}),
		DeserializerFunc[int64](func(_ string, data []byte) (int64, error) {
			if len(data) != 8 {
				return 0, fmt.Errorf("%w: int64 needs 8 bytes, got %d", ErrInvalidLength, len(data))
			}
			return int64(binary.BigEndian.Uint64(data)), nil
		}),
	)
}

// Bytes passes byte slices through. Both directions copy so the result
// never aliases the caller's buffer.
func Bytes() Serde[[]byte] {
	return New[[]byte](
		SerializerFunc[[]byte](func(_ string, v []byte) ([]byte, error) {
			return append([]byte{}, v...), nil
		}),
		DeserializerFunc[[]byte](func(_ string, data []byte) ([]byte, error) {
			return append([]byte{}, data...), nil
		}),
	)
}

// UUID serializes a uuid.UUID as its 16 raw bytes.
func UUID() Serde[uuid.UUID] {
	return New[uuid.UUID](
		SerializerFunc[uuid.UUID](func(_ string, v uuid.UUID) ([]byte, error) {
			b := make([]byte, 16)
			copy(b, v[:])
			return b, nil
		}),
		DeserializerFunc[uuid.UUID](func(_ string, data []byte) (uuid.UUID, error) {
			id, err := uuid.FromBytes(data)
			if err != nil {
				return uuid.Nil, fmt.Errorf("%w: uuid: %v", ErrInvalidLength, err)
			}
			return id, nil
		}),
	)
}

var registry = map[string]func() Serde[any]{
	"string": func() Serde[any] { return Erase(String()) },
	"int32":  func() Serde[any] { return Erase(Int32()) },
	"int64":  func() Serde[any] { return Erase(Int64()) },
	"bytes":  func() Serde[any] { return Erase(Bytes()) },
	"uuid":   func() Serde[any] { return Erase(UUID()) },
}

// ByName returns the erased built-in serde registered under name.
func ByName(name string) (Serde[any], error) {
	ctor, ok := registry[name]
	if !ok {
		return Serde[any]{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownSerde, name, Names())
	}
	return ctor(), nil
}

// Names lists the registered serde names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
