package streams

import (
	"math"
	"sort"

	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
)

// Merger reconciles the unread companion of a stream into its main
// variant and folds staged queue chunks in without breaking order.
type Merger struct {
	streams *Store
	details *records.Repo[models.PostDetails]
}

// NewMerger wires the merger.
func NewMerger(streams *Store, details *records.Repo[models.PostDetails]) *Merger {
	return &Merger{streams: streams, details: details}
}

// MergeUnread folds the unread variant into the main stream: duplicates
// collapse, tombstoned posts are dropped, and the result is re-sorted
// newest first by indexed-at. A post with no cached detail row is kept
// and sorted as newest: missing detail is never treated as deleted.
// Returns the merged length.
func (m *Merger) MergeUnread(id ID) (int, error) {
	unread, ok, err := m.streams.ReadUnread(id)
	if err != nil {
		return 0, err
	}
	if !ok || len(unread.Items) == 0 {
		s, _, err := m.streams.Read(id)
		if err != nil || s == nil {
			return 0, err
		}
		return len(s.Items), nil
	}
	main, _, err := m.streams.Read(id)
	if err != nil {
		return 0, err
	}

	combined := append([]string(nil), unread.Items...)
	if main != nil {
		combined = append(combined, main.Items...)
	}

	seen := make(map[string]struct{}, len(combined))
	kept := combined[:0]
	for _, item := range combined {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		d, err := m.details.FindByID(item)
		if err != nil {
			return 0, err
		}
		if d != nil && d.Deleted() {
			continue
		}
		kept = append(kept, item)
	}

	freshness := make(map[string]int64, len(kept))
	for _, item := range kept {
		d, err := m.details.FindByID(item)
		if err != nil {
			return 0, err
		}
		if d == nil {
			freshness[item] = math.MaxInt64
			continue
		}
		freshness[item] = d.IndexedAt
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return freshness[kept[i]] > freshness[kept[j]]
	})

	if err := m.streams.Upsert(id, kept); err != nil {
		return 0, err
	}
	if err := m.streams.UpsertUnread(id, nil); err != nil {
		return 0, err
	}
	logger.Info("stream_merged", "stream", id.String(),
		"unread", len(unread.Items), "total", len(kept))
	return len(kept), nil
}

// EnqueueChunk stages a fetched chunk behind the visible stream and
// advances the backfill checkpoint. Duplicates already staged are
// dropped; order within and across chunks is preserved.
func (m *Merger) EnqueueChunk(id ID, items []string, tail int64) error {
	q, err := m.streams.ReadQueue(id)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(q.Queue))
	for _, it := range q.Queue {
		seen[it] = struct{}{}
	}
	for _, it := range items {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		q.Queue = append(q.Queue, it)
	}
	if tail != 0 {
		q.StreamTail = tail
	}
	return m.streams.SaveQueue(id, q)
}

// FlushQueue appends every staged item to the back of the main stream,
// preserving queue order and skipping items already visible, then clears
// the queue.
func (m *Merger) FlushQueue(id ID) error {
	q, err := m.streams.ReadQueue(id)
	if err != nil {
		return err
	}
	if len(q.Queue) == 0 {
		return m.streams.ClearQueue(id)
	}
	main, _, err := m.streams.Read(id)
	if err != nil {
		return err
	}
	var items []string
	if main != nil {
		items = main.Items
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it] = struct{}{}
	}
	for _, it := range q.Queue {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		items = append(items, it)
	}
	if err := m.streams.Upsert(id, items); err != nil {
		return err
	}
	return m.streams.ClearQueue(id)
}
