package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/util/hashing"
)

var (
	bucketData = []byte("objects")
	bucketMeta = []byte("objects_meta")
)

// boltMeta is the per-key record stored beside the object bytes.
type boltMeta struct {
	Size        int64     `json:"size"`
	ETag        string    `json:"etag"`
	ContentType string    `json:"content_type,omitempty"`
	Modified    time.Time `json:"modified"`
}

// BoltStore implements ConditionalStore on a bbolt file. Keys are kept in
// byte order, so prefix listings are a cursor seek.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates objects.bolt in dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dataDir, "objects.bolt"), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketData, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) List(ctx context.Context, opts services.ListOptions) (services.ListResult, error) {
	p := newPager(opts)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketMeta).Cursor()
		for k, v := c.Seek([]byte(p.start())); k != nil; k, v = c.Next() {
			key := string(k)
			if !p.inRange(key) {
				break
			}
			var m boltMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("decoding meta for %s: %w", key, err)
			}
			if !p.add(services.ObjectInfo{Key: key, Size: m.Size, LastModified: m.Modified}) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return services.ListResult{}, unavailable("listing objects", err)
	}
	return p.finish(), nil
}

func (s *BoltStore) Get(ctx context.Context, key string) (*services.Object, error) {
	var obj *services.Object
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var m boltMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("decoding meta for %s: %w", key, err)
		}
		// Values are only valid for the life of the transaction.
		data := append([]byte(nil), tx.Bucket(bucketData).Get([]byte(key))...)
		obj = &services.Object{
			Key:          key,
			Data:         data,
			ETag:         m.ETag,
			Size:         m.Size,
			ContentType:  m.ContentType,
			LastModified: m.Modified,
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("getting object", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, key)
	}
	return obj, nil
}

func (s *BoltStore) Head(ctx context.Context, key string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketMeta).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, unavailable("checking object", err)
	}
	return found, nil
}

func (s *BoltStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putBolt(tx, key, data, contentType)
	})
	if err != nil {
		return unavailable("putting object", err)
	}
	return nil
}

func (s *BoltStore) PutIfMatch(ctx context.Context, key string, data []byte, contentType, etag string) error {
	if err := validKey(key); err != nil {
		return err
	}
	conflict := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		current := ""
		if raw := tx.Bucket(bucketMeta).Get([]byte(key)); raw != nil {
			var m boltMeta
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("decoding meta for %s: %w", key, err)
			}
			current = m.ETag
		}
		if current != etag {
			conflict = true
			return nil
		}
		return putBolt(tx, key, data, contentType)
	})
	if err != nil {
		return unavailable("conditional put", err)
	}
	if conflict {
		return fmt.Errorf("%w: %s", services.ErrPreconditionFailed, key)
	}
	return nil
}

func putBolt(tx *bbolt.Tx, key string, data []byte, contentType string) error {
	meta, err := json.Marshal(boltMeta{
		Size:        int64(len(data)),
		ETag:        hashing.SHA256Hex(data),
		ContentType: contentType,
		Modified:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding meta: %w", err)
	}
	if err := tx.Bucket(bucketData).Put([]byte(key), data); err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put([]byte(key), meta)
}

func (s *BoltStore) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, key := range keys {
			if err := tx.Bucket(bucketData).Delete([]byte(key)); err != nil {
				return err
			}
			if err := tx.Bucket(bucketMeta).Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("deleting objects", err)
	}
	return nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
