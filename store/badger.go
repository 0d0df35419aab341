package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by a local BadgerDB.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the local store.
type BadgerOptions struct {
	// Dir is the data directory. Required unless InMemory.
	Dir string

	// InMemory skips disk persistence; tests use this to run against
	// the real engine.
	InMemory bool

	// Logger overrides badger's logger. Nil silences it.
	Logger badger.Logger
}

func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(opts.Logger)
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func noteKey(visitRef, id string) []byte {
	return []byte("note:" + visitRef + ":" + id)
}

func visitPrefix(visitRef string) []byte {
	return []byte("note:" + visitRef + ":")
}

func (b *Badger) Put(_ context.Context, n *Note) error {
	if err := validate(n); err != nil {
		return err
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	val, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("store: marshal note: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(noteKey(n.VisitRef, n.ID), val)
	})
}

func (b *Badger) Get(_ context.Context, visitRef, id string) (*Note, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(noteKey(visitRef, id))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var n Note
	if err := json.Unmarshal(val, &n); err != nil {
		return nil, fmt.Errorf("store: unmarshal note: %w", err)
	}
	return &n, nil
}

func (b *Badger) ListVisit(_ context.Context, visitRef string) ([]*Note, error) {
	prefix := visitPrefix(visitRef)
	var notes []*Note
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var n Note
			if err := json.Unmarshal(val, &n); err != nil {
				return fmt.Errorf("store: unmarshal note: %w", err)
			}
			notes = append(notes, &n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
