// Package boltdb opens the single bbolt file shared by the ledger and the phrase cache.
package boltdb

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Open opens (or creates) the database at path. Only one process can hold the file;
// a second opener gives up after one second.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	return db, nil
}

// EnsureBuckets creates the named buckets if they don't exist
func EnsureBuckets(db *bbolt.DB, names ...string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}
