package streams

import (
	"encoding/json"
	"fmt"

	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/store"
)

// Stream tables. Each stream value is the full ordered ID list; writers
// read-modify-write the whole value, so call-order is preserved per
// caller but concurrent callers racing on the same stream interleave
// last-write-wins. Callers needing strict serialization serialize above.
const (
	TableStreams      store.Table = "stream:main"
	TableUnread       store.Table = "stream:unread"
	TableStreamQueues store.Table = "stream:queue"
)

// Stream is a named ordered list of composite IDs with no duplicates.
type Stream struct {
	Items []string `json:"items"`
}

// Queue stages chunks fetched from the remote before they are folded
// into the visible stream. StreamTail records the timestamp of the oldest
// confirmed item, the backfill checkpoint.
type Queue struct {
	Queue      []string `json:"queue"`
	StreamTail int64    `json:"streamTail"`
}

// HeadKind is the three-way outcome of a head lookup.
type HeadKind int

const (
	// HeadTimestamp carries a real freshness checkpoint.
	HeadTimestamp HeadKind = iota
	// HeadForceFetch means the stream has no items yet: cold start,
	// always allow a remote fetch.
	HeadForceFetch
	// HeadSkipFetch means the head entity's detail row is still missing
	// from the entity store: hold off remote calls until the backfill
	// completes.
	HeadSkipFetch
)

// Head is the result of GetHead.
type Head struct {
	Kind      HeadKind
	Timestamp int64
}

// Store persists streams, their unread companions, and staging queues.
type Store struct {
	s       *store.Store
	details *records.Repo[models.PostDetails]
}

// NewStore wires the stream store to the shared mirror. The post details
// repository is consulted for head freshness lookups.
func NewStore(s *store.Store, details *records.Repo[models.PostDetails]) *Store {
	return &Store{s: s, details: details}
}

func (st *Store) read(t store.Table, id ID) (*Stream, bool, error) {
	raw, ok, err := st.s.Get(t, id.String())
	if err != nil || !ok {
		return nil, false, err
	}
	var s Stream
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("unmarshal stream %s: %w", id, err)
	}
	return &s, true, nil
}

func (st *Store) write(t store.Table, id ID, items []string) error {
	raw, err := json.Marshal(Stream{Items: items})
	if err != nil {
		return fmt.Errorf("marshal stream %s: %w", id, err)
	}
	return st.s.Put(t, id.String(), raw)
}

// Read returns the main variant of a stream.
func (st *Store) Read(id ID) (*Stream, bool, error) {
	return st.read(TableStreams, id)
}

// ReadUnread returns the unread companion of a stream.
func (st *Store) ReadUnread(id ID) (*Stream, bool, error) {
	return st.read(TableUnread, id)
}

// Upsert replaces the full item list of a stream.
func (st *Store) Upsert(id ID, items []string) error {
	return st.write(TableStreams, id, items)
}

// UpsertUnread replaces the full item list of the unread companion.
func (st *Store) UpsertUnread(id ID, items []string) error {
	return st.write(TableUnread, id, items)
}

// Prepend inserts an item at position 0 (newest-first convention).
// A no-op if the item is already present anywhere in the stream.
func (st *Store) Prepend(id ID, item string) error {
	s, _, err := st.Read(id)
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
	return st.Upsert(id, append([]string{item}, s.Items...))
}

// Remove deletes an item from the stream; a no-op if absent.
func (st *Store) Remove(id ID, item string) error {
	s, ok, err := st.Read(id)
	if err != nil || !ok {
		return err
	}
	out := s.Items[:0]
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
	return st.Upsert(id, out)
}

// Delete drops both variants and the staging queue of a stream.
func (st *Store) Delete(id ID) error {
	if err := st.s.Delete(TableStreams, id.String()); err != nil {
		return err
	}
	if err := st.s.Delete(TableUnread, id.String()); err != nil {
		return err
	}
	return st.s.Delete(TableStreamQueues, id.String())
}

// GetHead reports the freshness checkpoint of a stream, consulting the
// unread variant first. The three-way outcome is what keeps a thundering
// herd of fetches away while a stream is being populated: absent or empty
// streams always allow a fetch, and streams whose head detail has not
// been backfilled yet suppress further fetches.
func (st *Store) GetHead(id ID) (Head, error) {
	head := ""
	for _, t := range []store.Table{TableUnread, TableStreams} {
		s, ok, err := st.read(t, id)
		if err != nil {
			return Head{}, err
		}
		if ok && len(s.Items) > 0 {
			head = s.Items[0]
			break
		}
	}
	if head == "" {
		return Head{Kind: HeadForceFetch}, nil
	}
	d, err := st.details.FindByID(head)
	if err != nil {
		return Head{}, err
	}
	if d == nil {
		return Head{Kind: HeadSkipFetch}, nil
	}
	return Head{Kind: HeadTimestamp, Timestamp: d.IndexedAt}, nil
}

// ReadQueue returns the staging queue of a stream, empty when absent.
func (st *Store) ReadQueue(id ID) (*Queue, error) {
	raw, ok, err := st.s.Get(TableStreamQueues, id.String())
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Queue{}, nil
	}
	var q Queue
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("unmarshal queue %s: %w", id, err)
	}
	return &q, nil
}

// SaveQueue replaces the staging queue of a stream.
func (st *Store) SaveQueue(id ID, q *Queue) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal queue %s: %w", id, err)
	}
	return st.s.Put(TableStreamQueues, id.String(), raw)
}

// ClearQueue drops the staging queue of a stream.
func (st *Store) ClearQueue(id ID) error {
	return st.s.Delete(TableStreamQueues, id.String())
}
