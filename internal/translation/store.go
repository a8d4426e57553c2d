package translation

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/zombor/receipt-split/internal/boltdb"
)

const bucketName = "translations"

// BoltPhraseStore implements PhraseStore using BoltDB
type BoltPhraseStore struct {
	db *bbolt.DB
}

// NewBoltPhraseStore creates a BoltPhraseStore on an open database
func NewBoltPhraseStore(db *bbolt.DB) (*BoltPhraseStore, error) {
	if err := boltdb.EnsureBuckets(db, bucketName); err != nil {
		return nil, err
	}
	return &BoltPhraseStore{db: db}, nil
}

// LoadPhrases returns every stored translation
func (b *BoltPhraseStore) LoadPhrases() (map[string]string, error) {
	phrases := make(map[string]string)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			phrases[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading phrases: %w", err)
	}
	return phrases, nil
}

// SavePhrase stores one translation
func (b *BoltPhraseStore) SavePhrase(source, translated string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(source), []byte(translated))
	})
}
