package memtable

import (
	"bytes"
	"sync"

	"github.com/INLOpen/nexusjoin/core"
	"github.com/INLOpen/skiplist"
)

// Memtable is an in-memory ordered byte-key store. Iteration follows plain
// lexicographic byte order, which is what combined-key prefix scans rely on.
type Memtable struct {
	mu        sync.RWMutex
	data      *skiplist.SkipList[*MemtableKey, *MemtableEntry]
	sizeBytes int64 // Estimated size of data in bytes
}

// NewMemtable creates an empty Memtable.
func NewMemtable() *Memtable {
	return &Memtable{
		data: skiplist.NewWithComparator[*MemtableKey, *MemtableEntry](comparator),
	}
}

// Put stores value under key at the given point id. A higher point id
// shadows earlier writes of the same key.
func (m *Memtable) Put(key, value []byte, pointID uint64) {
	m.insert(key, value, core.EntryTypePut, pointID)
}

// Delete writes a tombstone for key at the given point id.
func (m *Memtable) Delete(key []byte, pointID uint64) {
	m.insert(key, nil, core.EntryTypeDelete, pointID)
}

func (m *Memtable) insert(key, value []byte, entryType core.EntryType, pointID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	newKey := &MemtableKey{Key: key, PointID: pointID}
	newEntry := &MemtableEntry{
		Key:       key,
		Value:     value,
		EntryType: entryType,
		PointID:   pointID,
	}

	// Insert overwrites the value of an identical (key, point id) node in
	// place and returns that node, so the old size must be read first.
	if node, ok := m.data.Seek(newKey); ok && comparator(node.Key(), newKey) == 0 {
		m.sizeBytes -= node.Value().Size()
	}
	m.data.Insert(newKey, newEntry)
	m.sizeBytes += newEntry.Size()
}

// Get returns the latest version of key. A tombstone is reported as found
// with EntryTypeDelete and a nil value; the caller decides how to interpret it.
func (m *Memtable) Get(key []byte) (value []byte, entryType core.EntryType, found bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Seek to (key, max point id): with Key ASC, PointID DESC ordering the
	// first node at or after it is the newest version of key, if any.
	node, ok := m.data.Seek(&MemtableKey{Key: key, PointID: ^uint64(0)})
	if !ok || !bytes.Equal(node.Key().Key, key) {
		return nil, 0, false
	}
	entry := node.Value()
	if entry.EntryType == core.EntryTypeDelete {
		return nil, entry.EntryType, true
	}
	return entry.Value, entry.EntryType, true
}

// Size returns the estimated size of the data in the memtable in bytes.
func (m *Memtable) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeBytes
}

// Len returns the number of stored versions, tombstones included.
func (m *Memtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Len()
}

// NewIterator creates an iterator over the latest version of each key in
// [startKey, endKey). A nil bound is open.
// The iterator holds a read lock on the memtable for its lifetime.
// The caller MUST call Close() on the iterator to release the lock.
func (m *Memtable) NewIterator(startKey, endKey []byte, order core.SortOrder) *MemtableIterator {
	m.mu.RLock()
	opts := make([]skiplist.IteratorOption[*MemtableKey, *MemtableEntry], 0)
	if order == core.Descending {
		opts = append(opts, skiplist.WithReverse[*MemtableKey, *MemtableEntry]())
	}

	return &MemtableIterator{
		mu:       &m.mu,
		iter:     m.data.NewIterator(opts...),
		startKey: startKey,
		endKey:   endKey,
		order:    order,
	}
}

// NewPrefixIterator creates an iterator over every key that begins with prefix.
func (m *Memtable) NewPrefixIterator(prefix []byte, order core.SortOrder) *MemtableIterator {
	var start []byte
	if len(prefix) > 0 {
		start = prefix
	}
	return m.NewIterator(start, PrefixSuccessor(prefix), order)
}
