package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	boltItemsBucket = []byte("session_items")
	boltMetaBucket  = []byte("session_meta")
)

type boltSessionMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoltStore keeps session items in a bbolt file. Each session is a nested
// bucket under session_items whose keys are big-endian sequence numbers.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (and creates if needed) the bolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("session db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(boltItemsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(boltMetaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Items(_ context.Context, sessionID string) ([]Item, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0)
	err = s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltItemsBucket).Bucket([]byte(sessionID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			item, err := decodeItem(v)
			if err != nil {
				return nil
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *BoltStore) AddItems(_ context.Context, sessionID string, items []Item) error {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	encoded, err := encodeItems(items)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(boltItemsBucket).CreateBucketIfNotExists([]byte(sessionID))
		if err != nil {
			return err
		}
		for _, data := range encoded {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			if err := bucket.Put(sequenceKey(seq), data); err != nil {
				return err
			}
		}

		metaBucket := tx.Bucket(boltMetaBucket)
		now := time.Now().UTC()
		meta := boltSessionMeta{CreatedAt: now, UpdatedAt: now}
		if raw := metaBucket.Get([]byte(sessionID)); raw != nil {
			var existing boltSessionMeta
			if err := json.Unmarshal(raw, &existing); err == nil && !existing.CreatedAt.IsZero() {
				meta.CreatedAt = existing.CreatedAt
			}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return metaBucket.Put([]byte(sessionID), raw)
	})
}

func (s *BoltStore) Clear(_ context.Context, sessionID string) error {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		items := tx.Bucket(boltItemsBucket)
		if items.Bucket([]byte(sessionID)) != nil {
			if err := items.DeleteBucket([]byte(sessionID)); err != nil {
				return err
			}
		}
		return tx.Bucket(boltMetaBucket).Delete([]byte(sessionID))
	})
}

func (s *BoltStore) Sessions(_ context.Context) ([]SessionSummary, error) {
	out := make([]SessionSummary, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		items := tx.Bucket(boltItemsBucket)
		return tx.Bucket(boltMetaBucket).ForEach(func(k, v []byte) error {
			var meta boltSessionMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("decode meta for %q: %w", k, err)
			}
			summary := SessionSummary{
				SessionID: string(k),
				CreatedAt: meta.CreatedAt,
				UpdatedAt: meta.UpdatedAt,
			}
			if bucket := items.Bucket(k); bucket != nil {
				summary.ItemCount = bucket.Stats().KeyN
			}
			out = append(out, summary)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func sortSummaries(summaries []SessionSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].SessionID < summaries[j].SessionID
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}

var _ Store = (*BoltStore)(nil)
