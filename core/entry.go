package core

// EntryType defines the type of an entry held by the ordered store.
type EntryType byte

const (
	// EntryTypeDelete represents a tombstone for a single key (point deletion).
	EntryTypeDelete EntryType = 'D'
	// EntryTypePut represents a live value.
	EntryTypePut EntryType = 'P'
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeDelete:
		return "delete"
	case EntryTypePut:
		return "put"
	default:
		return "unknown"
	}
}
