package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/noteapp/noteapp/kv"
)

// KVStore is a kv.Store backed by boltdb. Each collection is a top-level
// bucket holding one nested bucket per partition; row keys live in the
// partition bucket. Provisioning a missing collection or partition happens
// inside the write transaction that first touches it, so it is atomic and
// idempotent; reads treat a missing bucket as an empty partition.
type KVStore struct {
	path   string
	db     *bolt.DB
	logger *zap.Logger
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore returns an instance of KVStore with the file at the provided path.
func NewKVStore(path string) *KVStore {
	return &KVStore{
		path:   path,
		logger: zap.NewNop(),
	}
}

// Open creates the boltDB file if it doesn't exist and opens it otherwise.
func (s *KVStore) Open(ctx context.Context) error {
	// Ensure the required directory structure exists.
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", s.path, err)
	}

	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("unable to open boltdb file %v", err)
	}
	s.db = db

	s.logger.Info("Resources opened", zap.String("path", s.path))
	return nil
}

// Close the connection to the bolt database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithLogger sets the logger on the store.
func (s *KVStore) WithLogger(l *zap.Logger) {
	s.logger = l
}

// partition returns the nested partition bucket for reading, or nil when the
// collection or partition has never been written.
func partition(tx *bolt.Tx, collection, part string) *bolt.Bucket {
	c := tx.Bucket([]byte(collection))
	if c == nil {
		return nil
	}
	return c.Bucket([]byte(part))
}

// ensurePartition provisions the collection and partition buckets.
func ensurePartition(tx *bolt.Tx, collection, part string) (*bolt.Bucket, error) {
	c, err := tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return nil, err
	}
	return c.CreateBucketIfNotExists([]byte(part))
}

// Get returns the record stored at (partition, row).
func (s *KVStore) Get(ctx context.Context, collection, part, row string) (*kv.Record, error) {
	var rec *kv.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := partition(tx, collection, part)
		if b == nil {
			return kv.ErrKeyNotFound
		}
		v := b.Get([]byte(row))
		if v == nil {
			return kv.ErrKeyNotFound
		}
		rec = &kv.Record{Partition: part, Row: row, Value: append([]byte(nil), v...)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Scan returns every record in the partition.
func (s *KVStore) Scan(ctx context.Context, collection, part string) ([]kv.Record, error) {
	var recs []kv.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := partition(tx, collection, part)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			recs = append(recs, kv.Record{
				Partition: part,
				Row:       string(k),
				Value:     append([]byte(nil), v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// RangeQuery returns records whose row key falls strictly between
// rowPrefix+0x20 and rowPrefix+0x7f.
func (s *KVStore) RangeQuery(ctx context.Context, collection, part, rowPrefix string) ([]kv.Record, error) {
	low := rowPrefix + kv.RangeStart
	high := rowPrefix + kv.RangeEnd

	var recs []kv.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := partition(tx, collection, part)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek([]byte(low)); k != nil && string(k) < high; k, v = c.Next() {
			if string(k) == low {
				// lower bound is exclusive
				continue
			}
			recs = append(recs, kv.Record{
				Partition: part,
				Row:       string(k),
				Value:     append([]byte(nil), v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Insert stores a new record, failing if the row already exists.
func (s *KVStore) Insert(ctx context.Context, collection string, r kv.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := ensurePartition(tx, collection, r.Partition)
		if err != nil {
			return err
		}
		if b.Get([]byte(r.Row)) != nil {
			return kv.ErrKeyExists
		}
		return b.Put([]byte(r.Row), r.Value)
	})
}

// Replace overwrites an existing record.
func (s *KVStore) Replace(ctx context.Context, collection string, r kv.Record, insertIfAbsent bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := ensurePartition(tx, collection, r.Partition)
		if err != nil {
			return err
		}
		if !insertIfAbsent && b.Get([]byte(r.Row)) == nil {
			return kv.ErrKeyNotFound
		}
		return b.Put([]byte(r.Row), r.Value)
	})
}

// Delete removes a record.
func (s *KVStore) Delete(ctx context.Context, collection string, r kv.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := ensurePartition(tx, collection, r.Partition)
		if err != nil {
			return err
		}
		if b.Get([]byte(r.Row)) == nil {
			return kv.ErrKeyNotFound
		}
		return b.Delete([]byte(r.Row))
	})
}

// Batch applies ops in a single transaction against one partition.
func (s *KVStore) Batch(ctx context.Context, collection, part string, ops []kv.BatchOp) error {
	if len(ops) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := ensurePartition(tx, collection, part)
		if err != nil {
			return err
		}
		for _, op := range ops {
			if op.Record.Partition != part {
				return fmt.Errorf("batch record partition %q does not match batch partition %q", op.Record.Partition, part)
			}
			key := []byte(op.Record.Row)
			switch op.Kind {
			case kv.BatchInsert:
				if b.Get(key) != nil {
					return kv.ErrKeyExists
				}
				if err := b.Put(key, op.Record.Value); err != nil {
					return err
				}
			case kv.BatchUpsert:
				if err := b.Put(key, op.Record.Value); err != nil {
					return err
				}
			case kv.BatchDelete:
				if b.Get(key) == nil {
					return kv.ErrKeyNotFound
				}
				if err := b.Delete(key); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown batch op kind %d", op.Kind)
			}
		}
		return nil
	})
}
