// Package records provides the per-facet entity stores over the local
// mirror. Each facet of a post or user lives in its own table keyed by
// the same composite ID, so counters, relationships, and tags can be
// updated independently without rewriting whole records.
package records

import (
	"encoding/json"
	"fmt"

	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/store"
)

// Table names for every entity facet.
const (
	TablePostDetails       store.Table = "post:details"
	TablePostCounts        store.Table = "post:counts"
	TablePostRelationships store.Table = "post:relationships"
	TablePostTags          store.Table = "post:tags"
	TableUserDetails       store.Table = "user:details"
	TableUserCounts        store.Table = "user:counts"
	TableBookmarks         store.Table = "bookmarks"
	TableModeration        store.Table = "moderation"
	TableSettings          store.Table = "settings"
)

// Repo is a typed JSON repository over one table. All operations are
// individually atomic; batched operations are not transactional unless
// run through store.Transaction via the Tx variants.
type Repo[T any] struct {
	s     *store.Store
	table store.Table
}

// NewRepo binds a typed repository to a table.
func NewRepo[T any](s *store.Store, table store.Table) *Repo[T] {
	return &Repo[T]{s: s, table: table}
}

// Table returns the underlying table, for subscriptions.
func (r *Repo[T]) Table() store.Table { return r.table }

// FindByID returns the stored record or nil when absent.
func (r *Repo[T]) FindByID(id string) (*T, error) {
	raw, ok, err := r.s.Get(r.table, id)
	if err != nil || !ok {
		return nil, err
	}
	return decode[T](r.table, id, raw)
}

// FindByIDsPreserveOrder returns one slot per requested ID in the
// caller's order, with nil placeholders for IDs that have no stored row.
// Callers use the nil slots to detect cache misses.
func (r *Repo[T]) FindByIDsPreserveOrder(ids []string) ([]*T, error) {
	raws, err := r.s.GetMany(r.table, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(ids))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		v, err := decode[T](r.table, ids[i], raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// MissingIDs returns the subset of ids with no stored row, preserving
// the input order.
func (r *Repo[T]) MissingIDs(ids []string) ([]string, error) {
	raws, err := r.s.GetMany(r.table, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	for i, raw := range raws {
		if raw == nil {
			missing = append(missing, ids[i])
		}
	}
	return missing, nil
}

// Save upserts one record.
func (r *Repo[T]) Save(id string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", r.table, id, err)
	}
	return r.s.Put(r.table, id, raw)
}

// BulkSave upserts many records in one batch, last write wins per ID
// within the batch.
func (r *Repo[T]) BulkSave(ids []string, items []T) error {
	if len(ids) != len(items) {
		return fmt.Errorf("bulk save %s: %d ids for %d items", r.table, len(ids), len(items))
	}
	raws := make([][]byte, len(items))
	for i, v := range items {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", r.table, ids[i], err)
		}
		raws[i] = raw
	}
	return r.s.PutMany(r.table, ids, raws)
}

// DeleteByID removes one record; absent rows are a no-op.
func (r *Repo[T]) DeleteByID(id string) error {
	return r.s.Delete(r.table, id)
}

// Clear drops the whole table (explicit cache eviction only).
func (r *Repo[T]) Clear() error {
	return r.s.Clear(r.table)
}

// ListIDs returns every stored ID in key order.
func (r *Repo[T]) ListIDs() ([]string, error) {
	return r.s.ListIDs(r.table)
}

// FindByIDTx reads through an open transaction, observing its writes.
func (r *Repo[T]) FindByIDTx(tx *store.Txn, id string) (*T, error) {
	raw, ok, err := tx.Get(r.table, id)
	if err != nil || !ok {
		return nil, err
	}
	return decode[T](r.table, id, raw)
}

// SaveTx stages an upsert inside an open transaction.
func (r *Repo[T]) SaveTx(tx *store.Txn, id string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", r.table, id, err)
	}
	return tx.Put(r.table, id, raw)
}

// DeleteTx stages a removal inside an open transaction.
func (r *Repo[T]) DeleteTx(tx *store.Txn, id string) error {
	return tx.Delete(r.table, id)
}

func decode[T any](t store.Table, id string, raw []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s/%s: %w", t, id, err)
	}
	return &v, nil
}

// Records bundles every entity store for construction in one place.
type Records struct {
	PostDetails       *Repo[models.PostDetails]
	PostCounts        *Repo[models.PostCounts]
	PostRelationships *Repo[models.PostRelationships]
	PostTags          *Repo[models.PostTags]
	UserDetails       *Repo[models.UserDetails]
	UserCounts        *Repo[models.UserCounts]
	Bookmarks         *Repo[models.Bookmark]
	Moderation        *Repo[models.ModerationRecord]
	Settings          *Repo[models.Settings]
}

// New wires every repository to the shared store.
func New(s *store.Store) *Records {
	return &Records{
		PostDetails:       NewRepo[models.PostDetails](s, TablePostDetails),
		PostCounts:        NewRepo[models.PostCounts](s, TablePostCounts),
		PostRelationships: NewRepo[models.PostRelationships](s, TablePostRelationships),
		PostTags:          NewRepo[models.PostTags](s, TablePostTags),
		UserDetails:       NewRepo[models.UserDetails](s, TableUserDetails),
		UserCounts:        NewRepo[models.UserCounts](s, TableUserCounts),
		Bookmarks:         NewRepo[models.Bookmark](s, TableBookmarks),
		Moderation:        NewRepo[models.ModerationRecord](s, TableModeration),
		Settings:          NewRepo[models.Settings](s, TableSettings),
	}
}
