package store

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Txn is the handle passed into Transaction bodies. Reads see writes made
// earlier in the same transaction; nothing is visible to other readers
// until the body returns nil and the batch commits.
type Txn struct {
	store *Store
	batch *pebble.Batch
	// changes are buffered and emitted only after a successful commit.
	changes []Change
}

// Get reads through the transaction, observing its own pending writes.
func (tx *Txn) Get(t Table, id string) ([]byte, bool, error) {
	v, closer, err := tx.batch.Get(t.Key(id))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("txn get %s/%s: %w", t, id, err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

// Put stages an upsert.
func (tx *Txn) Put(t Table, id string, value []byte) error {
	if err := tx.batch.Set(t.Key(id), value, nil); err != nil {
		return fmt.Errorf("txn put %s/%s: %w", t, id, err)
	}
	tx.changes = append(tx.changes, Change{Table: t, ID: id})
	return nil
}

// Delete stages a removal; absent rows are a no-op.
func (tx *Txn) Delete(t Table, id string) error {
	if err := tx.batch.Delete(t.Key(id), nil); err != nil {
		return fmt.Errorf("txn delete %s/%s: %w", t, id, err)
	}
	tx.changes = append(tx.changes, Change{Table: t, ID: id, Deleted: true})
	return nil
}

// Transaction runs body against an indexed batch and commits it only if
// body returns nil. Any error discards every staged write, so no partial
// state is ever observable to a subsequent read. Transactions are
// serialized against each other; the body must not call back into the
// store's non-transactional writers.
func (s *Store) Transaction(body func(tx *Txn) error) error {
	s.txnMu.Lock()
	defer s.txnMu.Unlock()

	b := s.db.NewIndexedBatch()
	defer b.Close()
	tx := &Txn{store: s, batch: b}
	if err := body(tx); err != nil {
		recordRollback()
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		recordRollback()
		return fmt.Errorf("txn commit: %w", err)
	}
	for _, c := range tx.changes {
		s.notifier.emit(c)
	}
	return nil
}
