package translation

import (
	"context"
	"log/slog"

	"github.com/patrickmn/go-cache"
)

// PhraseStore persists successful translations across restarts
type PhraseStore interface {
	LoadPhrases() (map[string]string, error)
	SavePhrase(source, translated string) error
}

// Cached wraps a Translator with a phrase cache keyed by the exact source phrase.
// Only successful translations are cached.
type Cached struct {
	next  Translator
	cache *cache.Cache
	store PhraseStore
}

// NewCached creates a Cached translator, preloading phrases from store when given
func NewCached(next Translator, store PhraseStore) *Cached {
	c := &Cached{
		next:  next,
		cache: cache.New(cache.NoExpiration, 0),
		store: store,
	}
	if store != nil {
		phrases, err := store.LoadPhrases()
		if err != nil {
			slog.Warn("Failed to load translation cache", "error", err)
		}
		for source, translated := range phrases {
			c.cache.Set(source, translated, cache.NoExpiration)
		}
	}
	return c
}

// Lookup returns a cached translation
func (c *Cached) Lookup(phrase string) (string, bool) {
	v, ok := c.cache.Get(phrase)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Len returns the number of cached phrases
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

// Translate returns the cached translation or asks the wrapped Translator
func (c *Cached) Translate(ctx context.Context, phrase string) (string, error) {
	if translated, ok := c.Lookup(phrase); ok {
		return translated, nil
	}

	translated, err := c.next.Translate(ctx, phrase)
	if err != nil {
		return "", err
	}

	c.cache.Set(phrase, translated, cache.NoExpiration)
	if c.store != nil {
		if err := c.store.SavePhrase(phrase, translated); err != nil {
			slog.Warn("Failed to persist translation", "phrase", phrase, "error", err)
		}
	}
	return translated, nil
}
