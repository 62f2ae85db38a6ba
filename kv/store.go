package kv

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is the error returned when the requested (partition, row)
	// pair is not found.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExists is the error returned when an insert collides with an
	// existing (partition, row) pair.
	ErrKeyExists = errors.New("key already exists")
)

// IsNotFound reports whether err is the store's not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// Record is an entity held by the store. Records are grouped by a partition
// key and identified within the partition by a row key. The value is opaque
// to the store; callers marshal their own entities.
type Record struct {
	Partition string
	Row       string
	Value     []byte
}

// Range bound characters for RangeQuery. The query is a lexicographic bound
// scan, not a true prefix match, so row keys must stay within the printable
// range.
const (
	RangeStart = "\x20"
	RangeEnd   = "\x7f"
)

// BatchOpKind enumerates the operations allowed in a Batch.
type BatchOpKind int

const (
	// BatchInsert inserts a record, failing the batch if the row exists.
	BatchInsert BatchOpKind = iota
	// BatchUpsert inserts or replaces a record.
	BatchUpsert
	// BatchDelete deletes a record, failing the batch if the row is absent.
	BatchDelete
)

// BatchOp is a single operation within a Batch.
type BatchOp struct {
	Kind   BatchOpKind
	Record Record
}

// Store is a partitioned record store. Collections are provisioned lazily
// and idempotently on first use; a missing collection is never an error.
// Operations perform no retries — retry policy belongs to the caller.
type Store interface {
	// Get returns the record at (partition, row), or ErrKeyNotFound.
	Get(ctx context.Context, collection, partition, row string) (*Record, error)

	// Scan returns every record in the partition.
	Scan(ctx context.Context, collection, partition string) ([]Record, error)

	// RangeQuery returns records whose row key falls strictly between
	// rowPrefix+0x20 and rowPrefix+0x7f.
	RangeQuery(ctx context.Context, collection, partition, rowPrefix string) ([]Record, error)

	// Insert stores a new record, returning ErrKeyExists on collision.
	Insert(ctx context.Context, collection string, r Record) error

	// Replace overwrites an existing record. When insertIfAbsent is false a
	// missing row returns ErrKeyNotFound.
	Replace(ctx context.Context, collection string, r Record, insertIfAbsent bool) error

	// Delete removes a record, returning ErrKeyNotFound when absent.
	Delete(ctx context.Context, collection string, r Record) error

	// Batch applies ops atomically. Atomicity holds only within a single
	// partition of a single collection; every record in ops must carry the
	// given partition.
	Batch(ctx context.Context, collection, partition string, ops []BatchOp) error
}
