package memtable

import (
	"bytes"
	"encoding/binary"

	"github.com/INLOpen/nexusjoin/core"
)

// MemtableKey represents a unique key in the memtable.
// Keys are sorted first by the user key (Key), then by PointID in descending order.
// This ensures that for any given key, the latest version (highest PointID) appears first.
type MemtableKey struct {
	Key     []byte // User-provided key
	PointID uint64 // Write sequence number
}

// MemtableEntry represents a single key-value operation in the memtable.
// It can be either a Put operation (EntryTypePut) or a Delete operation (EntryTypeDelete).
type MemtableEntry struct {
	Key       []byte         // User-provided key
	Value     []byte         // Value bytes (nil for tombstones)
	EntryType core.EntryType // Type of operation (Put or Delete)
	PointID   uint64         // Sequence number matching the key's PointID
}

// Size returns the estimated memory size of the entry in bytes.
func (e *MemtableEntry) Size() int64 {
	// Key + Value + PointID (MaxVarintLen64 = 10 bytes) + EntryType (1 byte)
	return int64(len(e.Key) + len(e.Value) + binary.MaxVarintLen64 + 1)
}

// comparator defines the sort order for MemtableKey objects in the skip list.
// Keys are ordered lexicographically; for duplicate keys the newest version
// (highest PointID) comes first so lookups find it with a single Seek.
func comparator(a, b *MemtableKey) int {
	cmp := bytes.Compare(a.Key, b.Key)
	if cmp != 0 {
		return cmp
	}

	// Higher PointID should come first, so it's "less than" in our sort order
	if a.PointID > b.PointID {
		return -1
	}
	if a.PointID < b.PointID {
		return 1
	}

	return 0
}

// PrefixSuccessor returns the smallest key that is greater than every key
// starting with prefix. It returns nil when no such key exists, which is the
// case for an empty prefix or one made only of 0xff bytes.
func PrefixSuccessor(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
