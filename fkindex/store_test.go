package fkindex

import (
	"context"
	"testing"

	"github.com/INLOpen/nexusjoin/combinedkey"
	"github.com/INLOpen/nexusjoin/compressors"
	"github.com/INLOpen/nexusjoin/core"
	"github.com/INLOpen/nexusjoin/processor"
	"github.com/INLOpen/nexusjoin/serde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"
)

func newSchema(t *testing.T) *combinedkey.Schema[string, int32] {
	t.Helper()
	pk := serde.Int32()
	s := combinedkey.NewSchema[string, int32](
		processor.InternalTopic("app", "fk"), nil,
		processor.InternalTopic("app", "pk"), &pk,
	)
	require.NoError(t, s.Init(processor.NewContext("app", serde.Erase(serde.String()), nil)))
	return s
}

func primaryKeys(entries []Entry[string, int32]) []int32 {
	out := make([]int32, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key.PrimaryKey())
	}
	return out
}

func TestStore_PutGetDeleteScan(t *testing.T) {
	for _, ct := range []core.CompressionType{core.CompressionNone, core.CompressionSnappy, core.CompressionLZ4, core.CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			c, err := compressors.New(ct)
			require.NoError(t, err)
			store, err := NewStore(newSchema(t), StoreOptions{Compressor: c})
			require.NoError(t, err)
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "region-1", 42, []byte("order-42")))
			require.NoError(t, store.Put(ctx, "region-1", 7, []byte("order-7")))
			require.NoError(t, store.Put(ctx, "region-10", 1, []byte("order-1")))
			require.NoError(t, store.Put(ctx, "region", 3, []byte("order-3")))
			require.NoError(t, store.Put(ctx, "region-2", 9, []byte("order-9")))

			value, found, err := store.Get(ctx, "region-1", 42)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, []byte("order-42"), value)

			_, found, err = store.Get(ctx, "region-1", 99)
			require.NoError(t, err)
			assert.False(t, found)

			entries, err := store.Scan(ctx, "region-1")
			require.NoError(t, err)
			assert.Equal(t, []int32{7, 42}, primaryKeys(entries))
			for _, e := range entries {
				assert.Equal(t, "region-1", e.Key.ForeignKey())
			}
			assert.Equal(t, []byte("order-7"), entries[0].Value)

			require.NoError(t, store.Delete(ctx, "region-1", 7))
			entries, err = store.Scan(ctx, "region-1")
			require.NoError(t, err)
			assert.Equal(t, []int32{42}, primaryKeys(entries))

			_, found, err = store.Get(ctx, "region-1", 7)
			require.NoError(t, err)
			assert.False(t, found)

			// Overwrite keeps one live entry.
			require.NoError(t, store.Put(ctx, "region-1", 42, []byte("order-42-v2")))
			entries, err = store.Scan(ctx, "region-1")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, []byte("order-42-v2"), entries[0].Value)

			entries, err = store.Scan(ctx, "region-3")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestStore_ScanEmptyForeignKey(t *testing.T) {
	store, err := NewStore(newSchema(t), StoreOptions{})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "", 1, nil))
	require.NoError(t, store.Put(ctx, "a", 2, nil))

	entries, err := store.Scan(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, combinedkey.NewCombinedKey("", int32(1)), entries[0].Key)
	assert.Empty(t, entries[0].Value)
}

func TestStore_UninitializedSchema(t *testing.T) {
	fk := serde.String()
	pk := serde.Int32()
	schema := combinedkey.NewSchema(processor.InternalTopic("", "fk"), &fk, processor.InternalTopic("", "pk"), &pk)
	store, err := NewStore(schema, StoreOptions{})
	require.NoError(t, err)

	err = store.Put(context.Background(), "a", 1, []byte("v"))
	assert.ErrorIs(t, err, combinedkey.ErrSchemaNotInitialized)
	_, err = store.Scan(context.Background(), "a")
	assert.ErrorIs(t, err, combinedkey.ErrSchemaNotInitialized)
	assert.Equal(t, 0, store.Len())
}

func TestNewStore_RequiresSchema(t *testing.T) {
	_, err := NewStore[string, int32](nil, StoreOptions{})
	require.Error(t, err)
}

func TestStore_ScanHonoursCancellation(t *testing.T) {
	store, err := NewStore(newSchema(t), StoreOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "a", 1, []byte("v")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Scan(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	store, err := NewStore(newSchema(t), StoreOptions{Tracer: provider.Tracer("fkindex-test")})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", 1, []byte("v")))
	_, err = store.Scan(ctx, "a")
	require.NoError(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "fkindex.Store.Put", ended[0].Name())
	assert.Equal(t, "fkindex.Store.Scan", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)

	// A failing operation marks its span as an error.
	fk := serde.String()
	pk := serde.Int32()
	uninit := combinedkey.NewSchema(processor.InternalTopic("", "fk"), &fk, processor.InternalTopic("", "pk"), &pk)
	bad, err := NewStore(uninit, StoreOptions{Tracer: provider.Tracer("fkindex-test")})
	require.NoError(t, err)
	require.Error(t, bad.Delete(ctx, "a", 1))

	ended = recorder.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, codes.Error, ended[2].Status().Code)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	store, err := NewStore(newSchema(t), StoreOptions{Compressor: compressors.NewSnappyCompressor()})
	require.NoError(t, err)
	ctx := context.Background()

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		fk := string(rune('a' + w))
		g.Go(func() error {
			for i := int32(0); i < 50; i++ {
				if err := store.Put(ctx, fk, i, []byte(fk)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for w := 0; w < 4; w++ {
		fk := string(rune('a' + w))
		entries, err := store.Scan(ctx, fk)
		require.NoError(t, err)
		require.Len(t, entries, 50)
		for i, e := range entries {
			assert.Equal(t, int32(i), e.Key.PrimaryKey())
			assert.Equal(t, []byte(fk), e.Value)
		}
	}
	assert.Equal(t, 200, store.Len())
}
