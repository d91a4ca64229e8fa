package syncer

import (
	"context"
	"testing"

	"github.com/pubky/franky-sub007/pkg/config"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/settings"
	"github.com/pubky/franky-sub007/pkg/store"
	"github.com/pubky/franky-sub007/pkg/streams"
)

const owner = "o1owner"

type fakeIndex struct {
	pages      map[string][]string
	posts      map[string]models.PostView
	pageCalls  int
	postsCalls int
}

func (f *fakeIndex) FetchStreamPage(_ context.Context, stream string, _, _ int, _ string) (models.StreamPage, error) {
	f.pageCalls++
	return models.StreamPage{IDs: f.pages[stream]}, nil
}

func (f *fakeIndex) FetchPostsByIDs(_ context.Context, ids []string, _ string) ([]models.PostView, error) {
	f.postsCalls++
	var out []models.PostView
	for _, id := range ids {
		if v, ok := f.posts[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeOrigin struct{ doc []byte }

func (f *fakeOrigin) Get(_ context.Context, _, _ string) ([]byte, bool, error) {
	return f.doc, f.doc != nil, nil
}

func (f *fakeOrigin) Put(_ context.Context, _, _ string, body []byte) error {
	f.doc = append([]byte(nil), body...)
	return nil
}

type harness struct {
	syncer  *Syncer
	streams *streams.Store
	recs    *records.Records
	index   *fakeIndex
}

func newHarness(t *testing.T, tracked ...streams.ID) *harness {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	recs := records.New(s)
	st := streams.NewStore(s, recs.PostDetails)
	idx := &fakeIndex{pages: make(map[string][]string), posts: make(map[string]models.PostView)}
	sync := settings.New(recs, &fakeOrigin{}, owner)
	cfg := config.SyncConfig{Enabled: true, PageSize: 10, BackfillRPS: 1000, BackfillBurst: 1000}
	return &harness{
		syncer:  New(cfg, st, recs, idx, sync, owner, tracked),
		streams: st,
		recs:    recs,
		index:   idx,
	}
}

func TestRunOnceStagesFreshItemsAndBackfills(t *testing.T) {
	h := newHarness(t, streams.All)
	h.index.pages["all"] = []string{"o2:a", "o2:b"}
	h.index.posts["o2:a"] = models.PostView{Details: models.PostDetails{ID: "o2:a", IndexedAt: 2}}
	h.index.posts["o2:b"] = models.PostView{Details: models.PostDetails{ID: "o2:b", IndexedAt: 1}}

	if err := h.syncer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	unread, ok, err := h.streams.ReadUnread(streams.All)
	if err != nil || !ok {
		t.Fatalf("read unread: %v %v", ok, err)
	}
	if len(unread.Items) != 2 || unread.Items[0] != "o2:a" {
		t.Fatalf("unexpected staged items: %v", unread.Items)
	}
	// the main stream stays untouched until an explicit merge
	if _, ok, _ := h.streams.Read(streams.All); ok {
		t.Fatalf("poll must not touch the main stream")
	}
	// backfill resolved both detail rows
	missing, err := h.recs.PostDetails.MissingIDs([]string{"o2:a", "o2:b"})
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected backfill to resolve details: %v", missing)
	}
}

func TestRunOnceDedupsAgainstVisibleAndStaged(t *testing.T) {
	h := newHarness(t, streams.All)
	if err := h.recs.PostDetails.Save("o2:a", models.PostDetails{ID: "o2:a", IndexedAt: 3}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.recs.PostDetails.Save("o2:b", models.PostDetails{ID: "o2:b", IndexedAt: 2}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.streams.Upsert(streams.All, []string{"o2:a"}); err != nil {
		t.Fatalf("seed main: %v", err)
	}
	if err := h.streams.UpsertUnread(streams.All, []string{"o2:b"}); err != nil {
		t.Fatalf("seed unread: %v", err)
	}
	h.index.pages["all"] = []string{"o2:a", "o2:b", "o2:c"}
	h.index.posts["o2:c"] = models.PostView{Details: models.PostDetails{ID: "o2:c"}}

	if err := h.syncer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	unread, _, err := h.streams.ReadUnread(streams.All)
	if err != nil {
		t.Fatalf("read unread: %v", err)
	}
	want := []string{"o2:c", "o2:b"}
	if len(unread.Items) != len(want) {
		t.Fatalf("unexpected staged items: %v", unread.Items)
	}
	for i, id := range want {
		if unread.Items[i] != id {
			t.Fatalf("fresh items go in front of staged ones: %v", unread.Items)
		}
	}
}

func TestRunOnceSkipsStreamAwaitingBackfill(t *testing.T) {
	h := newHarness(t, streams.All)
	// head item has no detail row, the stream is mid-backfill
	if err := h.streams.Upsert(streams.All, []string{"o2:unfetched"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.syncer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if h.index.pageCalls != 0 {
		t.Fatalf("mid-backfill stream must not be polled")
	}
}

func TestRunOnceEmptyPageIsQuiet(t *testing.T) {
	h := newHarness(t, streams.All)
	if err := h.syncer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if _, ok, _ := h.streams.ReadUnread(streams.All); ok {
		t.Fatalf("empty page must not create an unread stream")
	}
	if h.index.postsCalls != 0 {
		t.Fatalf("nothing fresh, no backfill expected")
	}
}

func TestStartDisabledIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.syncer.cfg.Enabled = false
	cancel, err := h.syncer.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
}

func TestStartRejectsBadCron(t *testing.T) {
	h := newHarness(t)
	h.syncer.cfg.Cron = "not a cron"
	if _, err := h.syncer.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron to be rejected")
	}
}
