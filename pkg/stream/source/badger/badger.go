// Package badger provides a resource source backed by an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/assetstream/pkg/stream"
)

// prefixResource namespaces resource keys so the database can be shared.
const prefixResource = "res:"

// Config holds configuration for the badger source.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the database in memory only.
	InMemory bool
	// ReadOnly opens an existing database without write access.
	ReadOnly bool
}

// Source reads resources from BadgerDB.
type Source struct {
	db *badgerdb.DB
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Source, error) {
	var opts badgerdb.Options
	switch {
	case cfg.InMemory:
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	case cfg.Path != "":
		opts = badgerdb.DefaultOptions(cfg.Path).WithReadOnly(cfg.ReadOnly)
	default:
		return nil, errors.New("badger source: path is required")
	}
	// Badger's own logger is chatty at INFO; errors still surface as returns.
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger source: %w", err)
	}
	return New(db), nil
}

// New wraps an already open database. Close closes db.
func New(db *badgerdb.DB) *Source {
	return &Source{db: db}
}

// Name returns "badger".
func (s *Source) Name() string { return "badger" }

func resourceKey(key string) []byte {
	return []byte(prefixResource + key)
}

// Fetch reads the value stored for key.
func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(resourceKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return nil, stream.ErrResourceNotFound
	case errors.Is(err, badgerdb.ErrDBClosed):
		return nil, stream.ErrSourceClosed
	case err != nil:
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return data, nil
}

// Put stores data under key.
func (s *Source) Put(key string, data []byte) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(resourceKey(key), data)
	})
}

// Keys lists every stored resource key in lexical order.
func (s *Source) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixResource)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), prefixResource))
		}
		return nil
	})
	return keys, err
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}

var _ stream.Source = (*Source)(nil)
