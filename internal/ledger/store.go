package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/zombor/receipt-split/internal/boltdb"
)

const (
	bucketName  = "ledger"
	documentKey = "shared"
)

// Store persists the ledger Document as one value
type Store interface {
	// Load reads the whole document. A missing document loads as empty.
	Load(ctx context.Context) (*Document, error)

	// Update reads the document, applies fn and writes the result atomically.
	// Nothing is written when fn returns an error.
	Update(ctx context.Context, fn func(doc *Document) error) (*Document, error)

	// Replace overwrites the document if doc.Version matches the stored version
	Replace(ctx context.Context, doc *Document) (*Document, error)
}

// BoltStore implements Store using BoltDB. Every write replaces the whole document,
// but inside a single read-write transaction, so concurrent updates through the same
// file serialize instead of overwriting each other.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a BoltStore on an open database
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	if err := boltdb.EnsureBuckets(db, bucketName); err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func read(tx *bbolt.Tx) (*Document, error) {
	doc := &Document{}
	data := tx.Bucket([]byte(bucketName)).Get([]byte(documentKey))
	if data == nil {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshaling ledger: %w", err)
	}
	return doc, nil
}

func write(tx *bbolt.Tx, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	return tx.Bucket([]byte(bucketName)).Put([]byte(documentKey), data)
}

// Load reads the document
func (b *BoltStore) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *Document
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		doc, err = read(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update applies fn to the stored document and bumps its version
func (b *BoltStore) Update(ctx context.Context, fn func(doc *Document) error) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *Document
	err := b.db.Update(func(tx *bbolt.Tx) error {
		var err error
		doc, err = read(tx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		doc.Version++
		return write(tx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Replace writes doc when its version is the stored one
func (b *BoltStore) Replace(ctx context.Context, doc *Document) (*Document, error) {
	return b.Update(ctx, func(stored *Document) error {
		if stored.Version != doc.Version {
			return fmt.Errorf("%w: have version %d, stored %d", ErrVersionConflict, doc.Version, stored.Version)
		}
		*stored = *doc
		return nil
	})
}
