package streams

import (
	"testing"
)

func TestMergeUnreadFoldsAndSorts(t *testing.T) {
	f := newFixture(t)
	f.savePost(t, "o1:a", 300)
	f.savePost(t, "o1:b", 100)
	f.savePost(t, "o1:c", 200)
	if err := f.store.Upsert(Following, []string{"o1:b", "o1:c"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.store.UpsertUnread(Following, []string{"o1:a"}); err != nil {
		t.Fatalf("upsert unread: %v", err)
	}

	m := NewMerger(f.store, f.recs.PostDetails)
	n, err := m.MergeUnread(Following)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 merged items, got %d", n)
	}
	s, _, err := f.store.Read(Following)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"o1:a", "o1:c", "o1:b"}
	for i, id := range want {
		if s.Items[i] != id {
			t.Fatalf("expected newest-first order %v, got %v", want, s.Items)
		}
	}
	unread, ok, _ := f.store.ReadUnread(Following)
	if ok && len(unread.Items) > 0 {
		t.Fatalf("unread must be emptied after merge: %v", unread.Items)
	}
}

func TestMergeUnreadCollapsesDuplicates(t *testing.T) {
	f := newFixture(t)
	f.savePost(t, "o1:a", 100)
	f.savePost(t, "o1:b", 50)
	if err := f.store.Upsert(Following, []string{"o1:a", "o1:b"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.store.UpsertUnread(Following, []string{"o1:a"}); err != nil {
		t.Fatalf("upsert unread: %v", err)
	}

	m := NewMerger(f.store, f.recs.PostDetails)
	n, err := m.MergeUnread(Following)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if n != 2 {
		t.Fatalf("duplicate must collapse: got %d items", n)
	}
}

func TestMergeUnreadDropsTombstoned(t *testing.T) {
	f := newFixture(t)
	f.savePost(t, "o1:a", 200)
	f.saveTombstone(t, "o1:gone", 150)
	if err := f.store.Upsert(Following, []string{"o1:gone"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.store.UpsertUnread(Following, []string{"o1:a"}); err != nil {
		t.Fatalf("upsert unread: %v", err)
	}

	m := NewMerger(f.store, f.recs.PostDetails)
	n, err := m.MergeUnread(Following)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if n != 1 {
		t.Fatalf("tombstoned post must be dropped: got %d items", n)
	}
	s, _, _ := f.store.Read(Following)
	if s.Items[0] != "o1:a" {
		t.Fatalf("unexpected survivor: %v", s.Items)
	}
}

func TestMergeUnreadKeepsUnknownDetailAsNewest(t *testing.T) {
	f := newFixture(t)
	f.savePost(t, "o1:known", 999)
	if err := f.store.Upsert(Following, []string{"o1:known"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.store.UpsertUnread(Following, []string{"o1:mystery"}); err != nil {
		t.Fatalf("upsert unread: %v", err)
	}

	m := NewMerger(f.store, f.recs.PostDetails)
	n, err := m.MergeUnread(Following)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if n != 2 {
		t.Fatalf("missing detail must not be treated as deleted: got %d", n)
	}
	s, _, _ := f.store.Read(Following)
	if s.Items[0] != "o1:mystery" {
		t.Fatalf("unknown detail sorts newest: %v", s.Items)
	}
}

func TestMergeUnreadNoUnreadReturnsMainLength(t *testing.T) {
	f := newFixture(t)
	f.savePost(t, "o1:a", 1)
	if err := f.store.Upsert(Following, []string{"o1:a"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	m := NewMerger(f.store, f.recs.PostDetails)
	n, err := m.MergeUnread(Following)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected main length, got %d", n)
	}
}

func TestEnqueueChunkDedupsAndAdvancesTail(t *testing.T) {
	f := newFixture(t)
	m := NewMerger(f.store, f.recs.PostDetails)

	if err := m.EnqueueChunk(All, []string{"o1:a", "o1:b"}, 500); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := m.EnqueueChunk(All, []string{"o1:b", "o1:c"}, 400); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	q, err := f.store.ReadQueue(All)
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	want := []string{"o1:a", "o1:b", "o1:c"}
	if len(q.Queue) != len(want) {
		t.Fatalf("unexpected queue: %v", q.Queue)
	}
	for i, id := range want {
		if q.Queue[i] != id {
			t.Fatalf("unexpected queue order: %v", q.Queue)
		}
	}
	if q.StreamTail != 400 {
		t.Fatalf("tail must advance to latest chunk: %d", q.StreamTail)
	}
}

func TestEnqueueChunkZeroTailKeepsCheckpoint(t *testing.T) {
	f := newFixture(t)
	m := NewMerger(f.store, f.recs.PostDetails)
	if err := m.EnqueueChunk(All, []string{"o1:a"}, 500); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := m.EnqueueChunk(All, []string{"o1:b"}, 0); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	q, _ := f.store.ReadQueue(All)
	if q.StreamTail != 500 {
		t.Fatalf("zero tail must not clobber checkpoint: %d", q.StreamTail)
	}
}

func TestFlushQueueAppendsBehindMain(t *testing.T) {
	f := newFixture(t)
	m := NewMerger(f.store, f.recs.PostDetails)
	if err := f.store.Upsert(All, []string{"o1:a", "o1:b"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.EnqueueChunk(All, []string{"o1:b", "o1:c", "o1:d"}, 0); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := m.FlushQueue(All); err != nil {
		t.Fatalf("flush: %v", err)
	}

	s, _, err := f.store.Read(All)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"o1:a", "o1:b", "o1:c", "o1:d"}
	if len(s.Items) != len(want) {
		t.Fatalf("unexpected items: %v", s.Items)
	}
	for i, id := range want {
		if s.Items[i] != id {
			t.Fatalf("staged items must append in order: %v", s.Items)
		}
	}
	q, _ := f.store.ReadQueue(All)
	if len(q.Queue) != 0 {
		t.Fatalf("queue must be cleared after flush: %v", q.Queue)
	}
}
