package combinedkey

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/INLOpen/nexusjoin/processor"
	"github.com/INLOpen/nexusjoin/serde"
)

// SchemaOption configures a Schema.
type SchemaOption func(*schemaOptions)

type schemaOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report how serdes were resolved.
func WithLogger(logger *slog.Logger) SchemaOption {
	return func(o *schemaOptions) {
		o.logger = logger
	}
}

// resolvedSchema is the initialized state. It is never mutated after Init publishes it.
type resolvedSchema[F, P any] struct {
	foreignKeyTopic string
	primaryKeyTopic string
	foreignKey      serde.Serde[F]
	primaryKey      serde.Serde[P]
}

// Schema turns typed (foreign key, primary key) pairs into combined keys and
// back. Topic names and any serde halves not supplied at construction are
// resolved once, by Init, from a processor.Context.
type Schema[F, P any] struct {
	foreignKeyTopicSupplier func() string
	primaryKeyTopicSupplier func() string
	foreignKeyOverride      serde.Serde[F]
	primaryKeyOverride      serde.Serde[P]
	logger                  *slog.Logger

	initMu sync.Mutex
	state  atomic.Pointer[resolvedSchema[F, P]]
}

// NewSchema creates an uninitialized Schema. A nil serde asks Init to take
// both halves from the context default; a serde with one nil half keeps the
// half that is set and resolves only the other.
func NewSchema[F, P any](
	foreignKeyTopic func() string,
	foreignKeySerde *serde.Serde[F],
	primaryKeyTopic func() string,
	primaryKeySerde *serde.Serde[P],
	opts ...SchemaOption,
) *Schema[F, P] {
	o := schemaOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Schema[F, P]{
		foreignKeyTopicSupplier: foreignKeyTopic,
		primaryKeyTopicSupplier: primaryKeyTopic,
		logger:                  o.logger.With("component", "CombinedKeySchema"),
	}
	if foreignKeySerde != nil {
		s.foreignKeyOverride = *foreignKeySerde
	}
	if primaryKeySerde != nil {
		s.primaryKeyOverride = *primaryKeySerde
	}
	return s
}

// Init resolves topic names and missing serdes. Once it succeeds the schema
// is initialized for good and later calls return nil without doing anything.
// A failed Init leaves the schema uninitialized and may be retried; topic
// suppliers are only called by the attempt that succeeds. Concurrent callers
// are serialized. ctx may be nil when every serde half was supplied to NewSchema.
func (s *Schema[F, P]) Init(ctx processor.Context) error {
	if s.state.Load() != nil {
		return nil
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.state.Load() != nil {
		return nil
	}
	resolved, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	s.state.Store(resolved)
	return nil
}

func (s *Schema[F, P]) resolve(ctx processor.Context) (*resolvedSchema[F, P], error) {
	fk, pk := s.foreignKeyOverride, s.primaryKeyOverride
	if !fk.Complete() || !pk.Complete() {
		if ctx == nil {
			return nil, ErrMissingContext
		}
		var err error
		if fk, err = fillFromDefault(fk, ctx.KeySerde()); err != nil {
			return nil, fmt.Errorf("resolve foreign key serde: %w", err)
		}
		if pk, err = fillFromDefault(pk, ctx.KeySerde()); err != nil {
			return nil, fmt.Errorf("resolve primary key serde: %w", err)
		}
	}

	r := &resolvedSchema[F, P]{
		primaryKeyTopic: s.primaryKeyTopicSupplier(),
		foreignKeyTopic: s.foreignKeyTopicSupplier(),
		foreignKey:      fk,
		primaryKey:      pk,
	}
	s.logger.Debug("Combined key schema initialized",
		"foreign_key_topic", r.foreignKeyTopic,
		"primary_key_topic", r.primaryKeyTopic,
		"foreign_key_serializer_default", s.foreignKeyOverride.Serializer == nil,
		"foreign_key_deserializer_default", s.foreignKeyOverride.Deserializer == nil,
		"primary_key_serializer_default", s.primaryKeyOverride.Serializer == nil,
		"primary_key_deserializer_default", s.primaryKeyOverride.Deserializer == nil,
	)
	return r, nil
}

// fillFromDefault completes the nil halves of explicit from the context default.
func fillFromDefault[T any](explicit serde.Serde[T], def serde.Serde[any]) (serde.Serde[T], error) {
	if explicit.Complete() {
		return explicit, nil
	}
	narrowed, err := serde.Narrow[T](def)
	if err != nil {
		return serde.Serde[T]{}, err
	}
	if explicit.Serializer == nil {
		if narrowed.Serializer == nil {
			return serde.Serde[T]{}, fmt.Errorf("%w: context default has no serializer", ErrMissingContext)
		}
		explicit.Serializer = narrowed.Serializer
	}
	if explicit.Deserializer == nil {
		if narrowed.Deserializer == nil {
			return serde.Serde[T]{}, fmt.Errorf("%w: context default has no deserializer", ErrMissingContext)
		}
		explicit.Deserializer = narrowed.Deserializer
	}
	return explicit, nil
}

func (s *Schema[F, P]) resolved() (*resolvedSchema[F, P], error) {
	r := s.state.Load()
	if r == nil {
		return nil, ErrSchemaNotInitialized
	}
	return r, nil
}

// Initialized reports whether Init has completed successfully.
func (s *Schema[F, P]) Initialized() bool {
	return s.state.Load() != nil
}

// ForeignKeyTopic returns the resolved foreign key topic, or "" before Init.
func (s *Schema[F, P]) ForeignKeyTopic() string {
	if r := s.state.Load(); r != nil {
		return r.foreignKeyTopic
	}
	return ""
}

// PrimaryKeyTopic returns the resolved primary key topic, or "" before Init.
func (s *Schema[F, P]) PrimaryKeyTopic() string {
	if r := s.state.Load(); r != nil {
		return r.primaryKeyTopic
	}
	return ""
}

// ToBytes serializes both keys and encodes them as a combined key.
func (s *Schema[F, P]) ToBytes(foreignKey F, primaryKey P) ([]byte, error) {
	r, err := s.resolved()
	if err != nil {
		return nil, err
	}
	fk, err := r.foreignKey.Serializer.Serialize(r.foreignKeyTopic, foreignKey)
	if err != nil {
		return nil, fmt.Errorf("serialize foreign key: %w", err)
	}
	pk, err := r.primaryKey.Serializer.Serialize(r.primaryKeyTopic, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("serialize primary key: %w", err)
	}
	return Encode(fk, pk)
}

// FromBytes decodes a combined key produced by ToBytes. The deserializers
// receive copies of the two segments, so data may be reused afterwards.
func (s *Schema[F, P]) FromBytes(data []byte) (CombinedKey[F, P], error) {
	var zero CombinedKey[F, P]
	r, err := s.resolved()
	if err != nil {
		return zero, err
	}
	fkRaw, pkRaw, err := Split(data)
	if err != nil {
		return zero, err
	}
	// Deserializers may keep their input; data can be a key owned by a store.
	fk, err := r.foreignKey.Deserializer.Deserialize(r.foreignKeyTopic, bytes.Clone(fkRaw))
	if err != nil {
		return zero, fmt.Errorf("deserialize foreign key: %w", err)
	}
	pk, err := r.primaryKey.Deserializer.Deserialize(r.primaryKeyTopic, bytes.Clone(pkRaw))
	if err != nil {
		return zero, fmt.Errorf("deserialize primary key: %w", err)
	}
	return NewCombinedKey(fk, pk), nil
}

// PrefixBytes returns the scan prefix for every combined key of foreignKey.
func (s *Schema[F, P]) PrefixBytes(foreignKey F) ([]byte, error) {
	r, err := s.resolved()
	if err != nil {
		return nil, err
	}
	fk, err := r.foreignKey.Serializer.Serialize(r.foreignKeyTopic, foreignKey)
	if err != nil {
		return nil, fmt.Errorf("serialize foreign key: %w", err)
	}
	return Prefix(fk)
}
