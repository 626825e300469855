// Package cache memoizes generated commit messages in a bbolt database so
// repeated runs over the same history do not re-query the model backend.
package cache

import (
	"crypto/sha256"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"go.etcd.io/bbolt"
)

var ErrNilDB = errors.New("cache database is nil")

var messageBucket = []byte("messages")

// Cache is a persistent commit-hash+prompt keyed message store.
type Cache struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	return c.db.Close()
}

// Key derives the lookup key for one generation. The prompt participates so
// that changed templates, languages, or redaction rules miss the cache.
func Key(commit plumbing.Hash, prompt string) []byte {
	h := sha256.New()
	h.Write(commit[:])
	h.Write([]byte(prompt))

	return h.Sum(nil)
}

// Get returns the cached message for key, or "" on a miss.
func (c *Cache) Get(key []byte) (string, error) {
	if c == nil || c.db == nil {
		return "", ErrNilDB
	}

	message := ""
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(messageBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			message = string(v)
		}

		return nil
	})

	return message, err
}

// Put stores the message under key.
func (c *Cache) Put(key []byte, message string) error {
	if c == nil || c.db == nil {
		return ErrNilDB
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(messageBucket)
		if err != nil {
			return err
		}

		return b.Put(key, []byte(message))
	})
}
