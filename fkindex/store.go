// Package fkindex keeps values under combined (foreign key, primary key)
// keys so that every primary key referencing a foreign key can be found with
// one prefix scan.
package fkindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/INLOpen/nexusjoin/combinedkey"
	"github.com/INLOpen/nexusjoin/compressors"
	"github.com/INLOpen/nexusjoin/core"
	"github.com/INLOpen/nexusjoin/memtable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StoreOptions configures a Store. Zero values select no compression, the
// default logger and a no-op tracer.
type StoreOptions struct {
	Compressor core.Compressor
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Entry is one live value found by a scan.
type Entry[F, P any] struct {
	Key   combinedkey.CombinedKey[F, P]
	Value []byte
}

// Store is a reverse index from foreign keys to the primary keys that
// reference them. It is safe for concurrent use once its schema is initialized.
type Store[F, P any] struct {
	schema     *combinedkey.Schema[F, P]
	table      *memtable.Memtable
	compressor core.Compressor
	logger     *slog.Logger
	tracer     trace.Tracer
	nextID     atomic.Uint64
}

// NewStore creates an empty Store using schema for key encoding.
func NewStore[F, P any](schema *combinedkey.Schema[F, P], opts StoreOptions) (*Store[F, P], error) {
	if schema == nil {
		return nil, errors.New("fkindex: schema is required")
	}
	if opts.Compressor == nil {
		opts.Compressor = compressors.NewNoCompressionCompressor()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("fkindex")
	}
	return &Store[F, P]{
		schema:     schema,
		table:      memtable.NewMemtable(),
		compressor: opts.Compressor,
		logger:     opts.Logger.With("component", "fkindex", "compression", opts.Compressor.Type().String()),
		tracer:     opts.Tracer,
	}, nil
}

func (s *Store[F, P]) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "fkindex.Store."+op, trace.WithAttributes(
		attribute.String("fkindex.foreign_key_topic", s.schema.ForeignKeyTopic()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Put stores value for the (foreignKey, primaryKey) pair, replacing any previous value.
func (s *Store[F, P]) Put(ctx context.Context, foreignKey F, primaryKey P, value []byte) (err error) {
	_, span := s.startSpan(ctx, "Put")
	defer func() { endSpan(span, err) }()

	key, err := s.schema.ToBytes(foreignKey, primaryKey)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	buf := core.BufferPool.Get()
	defer core.BufferPool.Put(buf)
	if err := s.compressor.CompressTo(buf, value); err != nil {
		return fmt.Errorf("compress value: %w", err)
	}
	stored := make([]byte, buf.Len())
	copy(stored, buf.Bytes())

	s.table.Put(key, stored, s.nextID.Add(1))
	span.SetAttributes(attribute.Int("fkindex.key_bytes", len(key)), attribute.Int("fkindex.value_bytes", len(stored)))
	return nil
}

// Get returns the value stored for the pair. found is false when the pair
// was never written or has been deleted.
func (s *Store[F, P]) Get(ctx context.Context, foreignKey F, primaryKey P) (value []byte, found bool, err error) {
	_, span := s.startSpan(ctx, "Get")
	defer func() { endSpan(span, err) }()

	key, err := s.schema.ToBytes(foreignKey, primaryKey)
	if err != nil {
		return nil, false, fmt.Errorf("encode key: %w", err)
	}
	raw, entryType, ok := s.table.Get(key)
	if !ok || entryType == core.EntryTypeDelete {
		return nil, false, nil
	}
	value, err = s.decompress(raw)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Delete removes the pair. Deleting an absent pair is not an error.
func (s *Store[F, P]) Delete(ctx context.Context, foreignKey F, primaryKey P) (err error) {
	_, span := s.startSpan(ctx, "Delete")
	defer func() { endSpan(span, err) }()

	key, err := s.schema.ToBytes(foreignKey, primaryKey)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}
	s.table.Delete(key, s.nextID.Add(1))
	return nil
}

// Scan returns every live entry whose foreign key equals foreignKey, in
// ascending byte order of the encoded primary keys.
func (s *Store[F, P]) Scan(ctx context.Context, foreignKey F) (entries []Entry[F, P], err error) {
	ctx, span := s.startSpan(ctx, "Scan")
	defer func() { endSpan(span, err) }()

	prefix, err := s.schema.PrefixBytes(foreignKey)
	if err != nil {
		return nil, fmt.Errorf("encode prefix: %w", err)
	}

	iter := s.table.NewPrefixIterator(prefix, core.Ascending)
	defer iter.Close()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node, err := iter.At()
		if err != nil {
			return nil, err
		}
		if node.EntryType == core.EntryTypeDelete {
			continue
		}
		key, err := s.schema.FromBytes(node.Key)
		if err != nil {
			return nil, fmt.Errorf("decode key %x: %w", node.Key, err)
		}
		value, err := s.decompress(node.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry[F, P]{Key: key, Value: value})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	s.logger.Debug("Prefix scan completed", "prefix_bytes", len(prefix), "entries", len(entries))
	span.SetAttributes(attribute.Int("fkindex.entries", len(entries)))
	return entries, nil
}

// Len returns the number of stored versions, tombstones included.
func (s *Store[F, P]) Len() int {
	return s.table.Len()
}

func (s *Store[F, P]) decompress(raw []byte) ([]byte, error) {
	r, err := s.compressor.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	defer r.Close()
	value, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read decompressed value: %w", err)
	}
	return value, nil
}
