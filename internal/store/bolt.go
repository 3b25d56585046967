// Package store provides durable implementations of prefs.ValueStore.
package store

import (
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// DefaultDomain names the bucket or table domain used when none is given.
const DefaultDomain = "defaults"

// Bolt is a prefs.ValueStore backed by a single bbolt bucket.
// It is safe for concurrent use by multiple goroutines.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

type Options struct {
	// Bucket is the name of the Bolt bucket to use. It is the domain that
	// RemoveAll clears.
	Bucket string
	// DeferSync skips the fsync on every commit. Writes become durable on
	// Flush.
	DeferSync bool
}

var _ prefs.ValueStore = (*Bolt)(nil)

// OpenBolt initializes or opens a Bolt store at the given path.
func OpenBolt(path string, opts Options) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	db.NoSync = opts.DeferSync
	bucket := []byte(DefaultDomain)
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) Get(key string) (prefs.Value, bool, error) {
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			// v is only valid for the life of the transaction.
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return prefs.Value{}, false, err
	}
	if raw == nil {
		return prefs.Value{}, false, nil
	}
	v, err := prefs.UnmarshalValue(raw)
	if err != nil {
		return prefs.Value{}, false, err
	}
	return v, true, nil
}

func (s *Bolt) Set(key string, v prefs.Value) error {
	if key == "" {
		return prefs.ErrEmptyKey
	}
	buf, err := prefs.MarshalValue(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Remove deletes a key. Deleting a missing key is a no-op.
func (s *Bolt) Remove(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// RemoveAll drops and recreates the bucket.
func (s *Bolt) RemoveAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

func (s *Bolt) ContainsKey(key string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(s.bucket).Get([]byte(key)) != nil
		return nil
	})
	return ok, err
}

// Flush fsyncs the database file.
func (s *Bolt) Flush() error {
	return s.db.Sync()
}
