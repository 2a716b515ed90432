// Package kvstore is the persistent key-value store shared by the engine and
// the background collaborator. Values are JSON documents in a single bbolt
// bucket; every committed write fans out a change notification to subscribers.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var bucketValues = []byte("values")

// Change describes one key whose stored value changed. Old is nil when the
// key did not exist before.
type Change struct {
	Key string
	Old json.RawMessage
	New json.RawMessage
}

// Listener receives the changes of one committed write, sorted by key.
type Listener func(changes []Change)

// Store is a bbolt-backed JSON key-value store.
type Store struct {
	db *bbolt.DB

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Open opens (or creates) a store at path. It fails after one second if
// another process holds the file.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketValues)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store %s: %w", path, err)
	}
	return &Store{db: db, listeners: make(map[int]Listener)}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// Path is the database file.
func (s *Store) Path() string { return s.db.Path() }

// Get decodes the value stored under key into out. It reports false when the
// key is absent.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := s.db.View(func(btx *bbolt.Tx) error {
		var err error
		found, err = (&Tx{b: btx.Bucket(bucketValues)}).Get(key, out)
		return err
	})
	return found, err
}

// Set writes all values in one transaction.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	return s.Update(ctx, func(tx *Tx) error {
		for k, v := range values {
			if err := tx.Set(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update runs fn in a read-write transaction. Subscribers are notified after
// the commit succeeds, on the caller's goroutine.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var changes []Change
	err := s.db.Update(func(btx *bbolt.Tx) error {
		tx := &Tx{b: btx.Bucket(bucketValues), writable: true}
		if err := fn(tx); err != nil {
			return err
		}
		changes = tx.changes
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(changes)
	return nil
}

// Subscribe registers l for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })

	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(changes)
	}
}

// Tx is a view of the store inside a transaction.
type Tx struct {
	b        *bbolt.Bucket
	writable bool
	changes  []Change
}

// Get decodes the value under key into out.
func (t *Tx) Get(key string, out any) (bool, error) {
	v := t.b.Get([]byte(key))
	if v == nil {
		return false, nil
	}
	if err := json.Unmarshal(v, out); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v under key. Writing an identical value records no change.
func (t *Tx) Set(key string, v any) error {
	if !t.writable {
		return fmt.Errorf("set %q: read-only transaction", key)
	}
	if key == "" {
		return fmt.Errorf("set: empty key")
	}
	nv, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	var old json.RawMessage
	if ov := t.b.Get([]byte(key)); ov != nil {
		if bytes.Equal(ov, nv) {
			return nil
		}
		old = append(json.RawMessage(nil), ov...)
	}
	if err := t.b.Put([]byte(key), nv); err != nil {
		return err
	}
	t.changes = append(t.changes, Change{Key: key, Old: old, New: nv})
	return nil
}
