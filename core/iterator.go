package core

type IteratorNodeInterface interface {
	TypeNode() string
}

type IteratorInterface[V IteratorNodeInterface] interface {
	Next() bool
	// At returns the current node.
	// The returned slices are only valid until the next call to Next().
	At() (V, error)
	Error() error
	Close() error
}

type IteratorNode struct {
	Key       []byte
	Value     []byte
	EntryType EntryType
	PointID   uint64
}

func (it *IteratorNode) TypeNode() string {
	return "NODEITERATOR"
}
