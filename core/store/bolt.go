package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sushant-115/pagewindow/core/pagemap"
)

var recordsBucket = []byte("records")

// BoltStore keeps the collection in a bbolt bucket. Keys are the big-endian
// logical index, values the 16 byte record id followed by the payload.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func posKey(pos uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, pos)
	return key
}

func (s *BoltStore) TotalCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(recordsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) LoadPage(ctx context.Context, page, pageSize int) ([]pagemap.Record, error) {
	if err := checkPageArgs(page, pageSize); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]pagemap.Record, 0, pageSize)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.Seek(posKey(uint64((page - 1) * pageSize))); k != nil && len(records) < pageSize; k, v = c.Next() {
			if len(v) < 16 {
				return fmt.Errorf("%w: record at %d is truncated", pagemap.ErrInconsistentState, binary.BigEndian.Uint64(k))
			}
			id, err := pagemap.RecordIDFromBytes(v[:16])
			if err != nil {
				return err
			}
			// v is only valid for the lifetime of the transaction
			payload := append([]byte(nil), v[16:]...)
			records = append(records, &pagemap.Item{RecordID: id, Payload: payload})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	return records, nil
}

func (s *BoltStore) Append(ctx context.Context, items []*pagemap.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for _, it := range items {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			value := make([]byte, 0, 16+len(it.Payload))
			value = append(value, it.RecordID.Bytes()...)
			value = append(value, it.Payload...)
			if err := bucket.Put(posKey(seq-1), value); err != nil {
				return fmt.Errorf("append record %s: %w", it.RecordID, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
