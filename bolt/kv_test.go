package bolt_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/noteapp/noteapp/bolt"
	"github.com/noteapp/noteapp/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func NewTestKVStore(t *testing.T) (*bolt.KVStore, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "noteapp-bolt-")
	require.NoError(t, err)
	f.Close()

	s := bolt.NewKVStore(f.Name())
	s.WithLogger(zaptest.NewLogger(t))
	require.NoError(t, s.Open(context.Background()))

	return s, func() {
		s.Close()
		os.Remove(f.Name())
	}
}

func TestKVStore_GetMissing(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()

	_, err := s.Get(context.Background(), "notes", "tenant1", "missing")
	assert.True(t, kv.IsNotFound(err))
}

func TestKVStore_InsertGet(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	r := kv.Record{Partition: "tenant1", Row: "abc", Value: []byte("v1")}
	require.NoError(t, s.Insert(ctx, "notes", r))

	got, err := s.Get(ctx, "notes", "tenant1", "abc")
	require.NoError(t, err)
	assert.Equal(t, r, *got)

	// same row again conflicts
	err = s.Insert(ctx, "notes", r)
	assert.ErrorIs(t, err, kv.ErrKeyExists)
}

func TestKVStore_PartitionIsolation(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}))
	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant2", Row: "b", Value: []byte("2")}))

	recs, err := s.Scan(ctx, "notes", "tenant1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].Row)

	_, err = s.Get(ctx, "notes", "tenant1", "b")
	assert.True(t, kv.IsNotFound(err))
}

func TestKVStore_CollectionIsolation(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}))

	recs, err := s.Scan(ctx, "media", "tenant1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestKVStore_Replace(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	r := kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}

	// replace without insertIfAbsent requires the row to exist
	err := s.Replace(ctx, "notes", r, false)
	assert.True(t, kv.IsNotFound(err))

	require.NoError(t, s.Replace(ctx, "notes", r, true))

	r.Value = []byte("2")
	require.NoError(t, s.Replace(ctx, "notes", r, false))

	got, err := s.Get(ctx, "notes", "tenant1", "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got.Value)
}

func TestKVStore_Delete(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	r := kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}
	require.NoError(t, s.Insert(ctx, "notes", r))
	require.NoError(t, s.Delete(ctx, "notes", r))

	_, err := s.Get(ctx, "notes", "tenant1", "a")
	assert.True(t, kv.IsNotFound(err))

	err = s.Delete(ctx, "notes", r)
	assert.True(t, kv.IsNotFound(err))
}

func TestKVStore_RangeQuery(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	rows := []string{
		"note1-title",
		"note1-tags",
		"note10-title", // shares the character prefix but not the note
		"note2-title",
	}
	for _, row := range rows {
		require.NoError(t, s.Insert(ctx, "note_data", kv.Record{Partition: "tenant1", Row: row, Value: []byte("x")}))
	}

	recs, err := s.RangeQuery(ctx, "note_data", "tenant1", "note1-")
	require.NoError(t, err)

	var got []string
	for _, r := range recs {
		got = append(got, r.Row)
	}
	assert.ElementsMatch(t, []string{"note1-title", "note1-tags"}, got)
}

func TestKVStore_RangeQueryEmptyPartition(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()

	recs, err := s.RangeQuery(context.Background(), "note_data", "tenant1", "note1-")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestKVStore_Batch(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant1", Row: "old", Value: []byte("1")}))

	ops := []kv.BatchOp{
		{Kind: kv.BatchInsert, Record: kv.Record{Partition: "tenant1", Row: "new", Value: []byte("2")}},
		{Kind: kv.BatchUpsert, Record: kv.Record{Partition: "tenant1", Row: "old", Value: []byte("3")}},
		{Kind: kv.BatchDelete, Record: kv.Record{Partition: "tenant1", Row: "new"}},
	}
	// the delete lands after the insert in the same transaction
	require.NoError(t, s.Batch(ctx, "notes", "tenant1", ops))

	_, err := s.Get(ctx, "notes", "tenant1", "new")
	assert.True(t, kv.IsNotFound(err))

	got, err := s.Get(ctx, "notes", "tenant1", "old")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got.Value)
}

func TestKVStore_BatchAtomic(t *testing.T) {
	s, done := NewTestKVStore(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}))

	ops := []kv.BatchOp{
		{Kind: kv.BatchUpsert, Record: kv.Record{Partition: "tenant1", Row: "b", Value: []byte("2")}},
		{Kind: kv.BatchInsert, Record: kv.Record{Partition: "tenant1", Row: "a", Value: []byte("3")}},
	}
	err := s.Batch(ctx, "notes", "tenant1", ops)
	require.Error(t, err)

	// nothing from the failed batch is visible
	_, err = s.Get(ctx, "notes", "tenant1", "b")
	assert.True(t, kv.IsNotFound(err))

	got, err := s.Get(ctx, "notes", "tenant1", "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got.Value)
}

func TestKVStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noteapp.bolt")
	ctx := context.Background()

	s := bolt.NewKVStore(path)
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Insert(ctx, "notes", kv.Record{Partition: "tenant1", Row: "a", Value: []byte("1")}))
	require.NoError(t, s.Close())

	s = bolt.NewKVStore(path)
	require.NoError(t, s.Open(ctx))
	defer s.Close()

	got, err := s.Get(ctx, "notes", "tenant1", "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got.Value)
}
