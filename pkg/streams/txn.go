package streams

import (
	"encoding/json"
	"fmt"

	"github.com/pubky/franky-sub007/pkg/store"
)

// Transaction-aware stream mutations, used by the side-effect
// coordinator so a stream membership change commits or rolls back with
// the rest of an action's writes.

func readTx(tx *store.Txn, id ID) (*Stream, error) {
	raw, ok, err := tx.Get(TableStreams, id.String())
	if err != nil || !ok {
		return nil, err
	}
	var s Stream
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal stream %s: %w", id, err)
	}
	return &s, nil
}

func writeTx(tx *store.Txn, id ID, items []string) error {
	raw, err := json.Marshal(Stream{Items: items})
	if err != nil {
		return fmt.Errorf("marshal stream %s: %w", id, err)
	}
	return tx.Put(TableStreams, id.String(), raw)
}

// PrependTx stages a position-0 insert; a no-op if the item is present.
func PrependTx(tx *store.Txn, id ID, item string) error {
	s, err := readTx(tx, id)
	if err != nil {
		return err
	}
	if s == nil {
		s = &Stream{}
	}
	for _, it := range s.Items {
		if it == item {
			return nil
		}
	}
	return writeTx(tx, id, append([]string{item}, s.Items...))
}

// RemoveTx stages an item removal; a no-op if absent.
func RemoveTx(tx *store.Txn, id ID, item string) error {
	s, err := readTx(tx, id)
	if err != nil || s == nil {
		return err
	}
	out := make([]string, 0, len(s.Items))
	found := false
	for _, it := range s.Items {
		if it == item {
			found = true
			continue
		}
		out = append(out, it)
	}
	if !found {
		return nil
	}
	return writeTx(tx, id, out)
}
