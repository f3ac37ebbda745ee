package combinedkey

import "errors"

var (
	// ErrCorruptCombinedKey is returned when a buffer is too short for its
	// length header or declares more foreign key bytes than it holds.
	ErrCorruptCombinedKey = errors.New("combinedkey: corrupt combined key")
	// ErrForeignKeyTooLarge is returned when a serialized foreign key does not fit the 4-byte length field.
	ErrForeignKeyTooLarge = errors.New("combinedkey: foreign key too large")
	// ErrSchemaNotInitialized is returned by Schema methods called before Init.
	ErrSchemaNotInitialized = errors.New("combinedkey: schema not initialized")
	// ErrMissingContext is returned by Init when a serde half must come from
	// the context but none was given.
	ErrMissingContext = errors.New("combinedkey: no processor context to resolve default serde")
)

// IsCorruptKey reports whether err, or any error in its chain, is ErrCorruptCombinedKey.
func IsCorruptKey(err error) bool {
	return errors.Is(err, ErrCorruptCombinedKey)
}
