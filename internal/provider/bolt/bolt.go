// Package bolt serves list items from a bbolt database. Items live in the
// "items" bucket keyed by big-endian uint64 index; values are JSON objects
// with content and style fields.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Kind is the provider kind registered by this package.
const Kind = "bolt"

const bucketItems = "items"

func init() {
	provider.RegisterFactory(Kind, func(src provider.Source) (provider.Provider, error) {
		return Open(src.ID, src.Path)
	})
}

// Provider reads items from a bbolt database.
type Provider struct {
	id string
	db *bolt.DB
}

// Open opens the database at path and ensures the items bucket exists.
func Open(id, path string) (*Provider, error) {
	if path == "" {
		return nil, provider.ErrSourceRequired
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Provider{id: id, db: db}, nil
}

func openDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketItems))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return db, nil
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.id }

// Count returns the number of keys in the items bucket.
func (p *Provider) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketItems)).Stats().KeyN
		return nil
	})
	return n, err
}

// Item decodes the value stored for index.
func (p *Provider) Item(ctx context.Context, index int) (virtual.Item, error) {
	if index < 0 {
		return virtual.Item{}, fmt.Errorf("%w: %d", provider.ErrIndexOutOfRange, index)
	}
	var item virtual.Item
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketItems)).Get(marshalIndex(uint64(index)))
		if v == nil {
			return fmt.Errorf("%w: no key %d", provider.ErrIndexOutOfRange, index)
		}
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("decode item %d: %w", index, err)
		}
		return nil
	})
	return item, err
}

// Close closes the database.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Write replaces the bucket contents with items, indexed by position.
func Write(path string, items []virtual.Item) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketItems)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(bucketItems))
		if err != nil {
			return err
		}
		for i, item := range items {
			v, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := b.Put(marshalIndex(uint64(i)), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func marshalIndex(index uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, index)
	return b
}
