// Package bboltcache implements ports.TableCache using bbolt (embedded
// B+ tree). Each release gets its own top-level bucket holding a
// fingerprint key plus the gob-encoded concept and edge tables. Writes are
// transactional, so a crash mid-save cannot corrupt a previously committed
// release.
package bboltcache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/carrick/snomap/internal/ports"
)

// Bucket keys
var (
	keyFingerprint = []byte("fingerprint")
	keyConcepts    = []byte("concepts")
	keyEdges       = []byte("edges")
)

// Cache implements ports.TableCache backed by bbolt.
type Cache struct {
	db *bolt.DB
}

// Open opens (or creates) a bbolt database at the given path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying bbolt database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save stores the compiled tables for a release, replacing any previous
// entry wholesale.
func (c *Cache) Save(release, fingerprint string, tables *ports.ReleaseTables) error {
	if tables == nil {
		return fmt.Errorf("nil tables")
	}

	conceptsBlob, err := encodeGob(tables.Concepts)
	if err != nil {
		return fmt.Errorf("encode concepts: %w", err)
	}
	edgesBlob, err := encodeGob(tables.Edges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		// Drop the old entry so a shrinking table never leaves stale keys.
		if err := tx.DeleteBucket([]byte(release)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket([]byte(release))
		if err != nil {
			return err
		}
		if err := b.Put(keyFingerprint, []byte(fingerprint)); err != nil {
			return err
		}
		if err := b.Put(keyConcepts, conceptsBlob); err != nil {
			return err
		}
		return b.Put(keyEdges, edgesBlob)
	})
}

// Load retrieves the cached tables for a release. Returns nil, nil when the
// entry is absent or was built from different source files (fingerprint
// mismatch) — both simply mean "parse from raw".
func (c *Cache) Load(release, fingerprint string) (*ports.ReleaseTables, error) {
	var conceptsBlob, edgesBlob []byte

	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(release))
		if b == nil {
			return nil
		}
		if string(b.Get(keyFingerprint)) != fingerprint {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get(keyConcepts); v != nil {
			conceptsBlob = make([]byte, len(v))
			copy(conceptsBlob, v)
		}
		if v := b.Get(keyEdges); v != nil {
			edgesBlob = make([]byte, len(v))
			copy(edgesBlob, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if conceptsBlob == nil && edgesBlob == nil {
		return nil, nil
	}

	tables := &ports.ReleaseTables{}
	if conceptsBlob != nil {
		if err := decodeGob(conceptsBlob, &tables.Concepts); err != nil {
			return nil, fmt.Errorf("decode concepts: %w", err)
		}
	}
	if edgesBlob != nil {
		if err := decodeGob(edgesBlob, &tables.Edges); err != nil {
			return nil, fmt.Errorf("decode edges: %w", err)
		}
	}
	return tables, nil
}

// DeleteRelease removes the cached tables for a release. Idempotent.
func (c *Cache) DeleteRelease(release string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(release))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
