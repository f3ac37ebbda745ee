// Package combinedkey packs a foreign key and a primary key into a single
// byte-comparable key and recovers them again.
//
// The layout is
//
//	[4-byte big-endian foreign key length L][L bytes foreign key][primary key]
//
// The primary key has no length field; it is whatever follows the foreign
// key and must therefore stay the last segment. Prefix(fk) is a byte prefix
// of Encode(fk, pk) for every pk, which is what makes a prefix scan over an
// ordered store return exactly the entries of one foreign key.
package combinedkey

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LengthFieldSize is the size of the foreign key length header.
const LengthFieldSize = 4

// Encode builds the combined key for already-serialized key bytes.
// The result is allocated at its exact size; the inputs are not modified.
func Encode(foreignKey, primaryKey []byte) ([]byte, error) {
	if len(foreignKey) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrForeignKeyTooLarge, len(foreignKey))
	}
	buf := make([]byte, LengthFieldSize+len(foreignKey)+len(primaryKey))
	binary.BigEndian.PutUint32(buf, uint32(len(foreignKey)))
	n := copy(buf[LengthFieldSize:], foreignKey)
	copy(buf[LengthFieldSize+n:], primaryKey)
	return buf, nil
}

// Prefix builds the scan prefix shared by every combined key of foreignKey.
func Prefix(foreignKey []byte) ([]byte, error) {
	if len(foreignKey) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrForeignKeyTooLarge, len(foreignKey))
	}
	buf := make([]byte, LengthFieldSize+len(foreignKey))
	binary.BigEndian.PutUint32(buf, uint32(len(foreignKey)))
	copy(buf[LengthFieldSize:], foreignKey)
	return buf, nil
}

// ForeignKeyLength reads and validates the length header of a combined key.
func ForeignKeyLength(data []byte) (int, error) {
	if len(data) < LengthFieldSize {
		return 0, fmt.Errorf("%w: need %d header bytes, got %d", ErrCorruptCombinedKey, LengthFieldSize, len(data))
	}
	l := int32(binary.BigEndian.Uint32(data))
	if l < 0 {
		return 0, fmt.Errorf("%w: negative foreign key length %d", ErrCorruptCombinedKey, l)
	}
	if int(l) > len(data)-LengthFieldSize {
		return 0, fmt.Errorf("%w: foreign key length %d exceeds remaining %d bytes", ErrCorruptCombinedKey, l, len(data)-LengthFieldSize)
	}
	return int(l), nil
}

// Split separates a combined key into its foreign and primary key bytes.
// Both returned slices alias data.
func Split(data []byte) (foreignKey, primaryKey []byte, err error) {
	l, err := ForeignKeyLength(data)
	if err != nil {
		return nil, nil, err
	}
	end := LengthFieldSize + l
	return data[LengthFieldSize:end:end], data[end:], nil
}
