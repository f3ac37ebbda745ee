package memtable

import (
	"bytes"
	"sync"

	"github.com/INLOpen/nexusjoin/core"
	"github.com/INLOpen/skiplist"
)

// MemtableIterator iterates over the latest version of each distinct key in the memtable.
// It is not safe for concurrent use by multiple goroutines.
type MemtableIterator struct {
	mu       *sync.RWMutex // The lock from the parent memtable. MUST be released by Close().
	iter     *skiplist.Iterator[*MemtableKey, *MemtableEntry]
	startKey []byte
	endKey   []byte
	order    core.SortOrder
	started  bool
	valid    bool // Indicates if the iterator is currently at a valid position.
	node     core.IteratorNode
	err      error
}

var _ core.IteratorInterface[*core.IteratorNode] = (*MemtableIterator)(nil)

// skipToLatestVersionOfCurrentKeyDescending advances the iterator to the latest version
// (highest PointID) of the key it is currently on. This is only used for descending iteration.
func (it *MemtableIterator) skipToLatestVersionOfCurrentKeyDescending() {
	currentKey := it.iter.Key().Key
	for {
		peekIter := it.iter.Clone()
		if !peekIter.Next() || !bytes.Equal(peekIter.Key().Key, currentKey) {
			break
		}
		it.iter.Next()
	}
}

// advanceToNextDistinctKey moves past every remaining version of the current key.
func (it *MemtableIterator) advanceToNextDistinctKey() bool {
	lastKey := it.iter.Key().Key
	for {
		if !it.iter.Next() {
			return false
		}
		if !bytes.Equal(it.iter.Key().Key, lastKey) {
			return true
		}
	}
}

func (it *MemtableIterator) seekFirst() bool {
	if it.order == core.Ascending {
		if it.startKey != nil {
			return it.iter.Seek(&MemtableKey{Key: it.startKey, PointID: ^uint64(0)})
		}
		return it.iter.First()
	}
	if it.endKey != nil {
		// A reversed iterator's Seek finds the first element <= key.
		if it.iter.Seek(&MemtableKey{Key: it.endKey, PointID: 0}) {
			return true
		}
		// Every key is below endKey; start from the very last element.
	}
	return it.iter.Last()
}

// Next moves the iterator to the next distinct key.
func (it *MemtableIterator) Next() bool {
	if it.mu == nil {
		return false
	}
	if !it.started {
		it.started = true
		if !it.seekFirst() {
			it.valid = false
			return false
		}
		if it.order == core.Descending {
			it.skipToLatestVersionOfCurrentKeyDescending()
		}
	} else {
		if !it.valid {
			return false
		}
		if !it.advanceToNextDistinctKey() {
			it.valid = false
			return false
		}
		if it.order == core.Descending {
			it.skipToLatestVersionOfCurrentKeyDescending()
		}
	}

	// Bounds checking, especially for descending scans that might start out of bounds.
	for {
		currentKey := it.iter.Key().Key
		if it.order == core.Ascending {
			if it.endKey != nil && bytes.Compare(currentKey, it.endKey) >= 0 {
				it.valid = false // Past the end key, so we are done.
				return false
			}
		} else {
			if it.startKey != nil && bytes.Compare(currentKey, it.startKey) < 0 {
				it.valid = false // Past the lower bound, so we are done.
				return false
			}
			if it.endKey != nil && bytes.Compare(currentKey, it.endKey) >= 0 {
				// Out of bounds, but smaller keys may still be in range.
				if !it.advanceToNextDistinctKey() {
					it.valid = false
					return false
				}
				it.skipToLatestVersionOfCurrentKeyDescending()
				continue
			}
		}
		it.valid = true
		return true
	}
}

// At returns the current entry. Tombstones are returned with
// EntryTypeDelete; the node is reused by the next call to Next.
func (it *MemtableIterator) At() (*core.IteratorNode, error) {
	if !it.valid {
		return nil, it.err
	}
	key := it.iter.Key()
	entry := it.iter.Value()
	it.node = core.IteratorNode{
		Key:       key.Key,
		Value:     entry.Value,
		EntryType: entry.EntryType,
		PointID:   key.PointID,
	}
	return &it.node, nil
}

// Error returns the error.
func (it *MemtableIterator) Error() error {
	return it.err
}

// Close releases the iterator's resources, including the read lock on the memtable.
// It is safe to call Close multiple times.
func (it *MemtableIterator) Close() error {
	if it.mu == nil { // Prevent multiple unlocks
		return nil
	}
	it.valid = false
	it.mu.RUnlock()
	it.mu = nil
	return nil
}
