// Package store is the persistent local mirror. It exposes named
// key-value tables over a single Pebble database, a transaction primitive
// that applies multi-table writes atomically, and change notifications
// for subscribers interested in a table.
package store

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/pubky/franky-sub007/pkg/logger"
)

// Table names a key namespace. Every row of a table lives under the key
// "<table>:<id>".
type Table string

// Key returns the raw Pebble key for an ID in this table.
func (t Table) Key(id string) []byte {
	return []byte(string(t) + ":" + id)
}

func (t Table) prefix() []byte {
	return []byte(string(t) + ":")
}

// Store owns the Pebble handle and the change notifier. It is constructed
// at session start and closed at logout; nothing in the engine holds
// database state in package globals.
type Store struct {
	db       *pebble.DB
	notifier *Notifier

	// txnMu serializes transactions so the idempotency read and the
	// subsequent writes of one transaction observe a consistent snapshot.
	txnMu sync.Mutex
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_local_mirror", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Store{db: db, notifier: newNotifier()}, nil
}

// Close closes the database and drops all subscriptions.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.notifier.closeAll()
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("local_mirror_closed")
	return nil
}

// Notifier returns the change notifier for UI-layer subscriptions.
func (s *Store) Notifier() *Notifier { return s.notifier }

// Get returns the raw value for an ID. Absence is not an error.
func (s *Store) Get(t Table, id string) ([]byte, bool, error) {
	v, closer, err := s.db.Get(t.Key(id))
	if err == pebble.ErrNotFound {
		recordMiss(t)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", t, id, err)
	}
	defer closer.Close()
	recordHit(t)
	return append([]byte(nil), v...), true, nil
}

// GetMany returns one slot per requested ID, preserving the caller's
// order; IDs with no stored row yield a nil slot. This is the primitive
// behind cache-miss detection.
func (s *Store) GetMany(t Table, ids []string) ([][]byte, error) {
	out := make([][]byte, len(ids))
	for i, id := range ids {
		v, ok, err := s.Get(t, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = v
		}
	}
	return out, nil
}

// Put upserts a single row and notifies subscribers.
func (s *Store) Put(t Table, id string, value []byte) error {
	if err := s.db.Set(t.Key(id), value, pebble.Sync); err != nil {
		logger.Error("put_failed", "table", string(t), "id", id, "error", err)
		return fmt.Errorf("put %s/%s: %w", t, id, err)
	}
	s.notifier.emit(Change{Table: t, ID: id})
	return nil
}

// PutMany upserts a batch atomically, last write wins per ID within the
// batch. It is a single Pebble batch but carries no cross-table
// guarantees; use Transaction for those.
func (s *Store) PutMany(t Table, ids []string, values [][]byte) error {
	if len(ids) != len(values) {
		return fmt.Errorf("put many %s: %d ids for %d values", t, len(ids), len(values))
	}
	b := s.db.NewBatch()
	defer b.Close()
	for i, id := range ids {
		if err := b.Set(t.Key(id), values[i], nil); err != nil {
			return fmt.Errorf("put many %s/%s: %w", t, id, err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("put_many_failed", "table", string(t), "count", len(ids), "error", err)
		return fmt.Errorf("put many %s: %w", t, err)
	}
	for _, id := range ids {
		s.notifier.emit(Change{Table: t, ID: id})
	}
	return nil
}

// Delete removes a row; deleting an absent row is a no-op.
func (s *Store) Delete(t Table, id string) error {
	if err := s.db.Delete(t.Key(id), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t, id, err)
	}
	s.notifier.emit(Change{Table: t, ID: id, Deleted: true})
	return nil
}

// ListIDs returns every row ID in a table in key order.
func (s *Store) ListIDs(t Table) ([]string, error) {
	prefix := t.prefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		out = append(out, string(iter.Key()[len(prefix):]))
	}
	return out, iter.Error()
}

// Clear drops every row in a table.
func (s *Store) Clear(t Table) error {
	ids, err := s.ListIDs(t)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, id := range ids {
		if err := b.Delete(t.Key(id), nil); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("clear %s: %w", t, err)
	}
	logger.Info("table_cleared", "table", string(t), "rows", len(ids))
	for _, id := range ids {
		s.notifier.emit(Change{Table: t, ID: id, Deleted: true})
	}
	return nil
}
