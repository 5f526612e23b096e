package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache persists successful translations keyed by language and source text.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens a badger database in dir. An empty dir keeps the cache in
// memory.
func OpenCache(dir string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open translation cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func cacheKey(language, text string) []byte {
	return []byte(language + "\x00" + text)
}

func (c *Cache) Get(language, text string) (string, bool, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(language, text))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

func (c *Cache) Put(language, text, translated string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(language, text), []byte(translated))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

type cachedTranslator struct {
	next     Translator
	cache    *Cache
	language string
	log      *slog.Logger
}

// WithCache serves repeated texts from cache and stores fresh results.
func WithCache(next Translator, cache *Cache, language string, log *slog.Logger) Translator {
	return &cachedTranslator{next: next, cache: cache, language: language, log: log}
}

func (c *cachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	if hit, ok, err := c.cache.Get(c.language, text); err != nil {
		c.log.Warn("translation cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return hit, nil
	}
	translated, err := c.next.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	if err := c.cache.Put(c.language, text, translated); err != nil {
		c.log.Warn("translation cache write failed", slog.String("error", err.Error()))
	}
	return translated, nil
}
