package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pubky/franky-sub007/pkg/config"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/streams"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.DBPath = t.TempDir()
	cfg.Session.Owner = "o1owner"
	cfg.Remote.NexusURL = "http://nexus.invalid"
	cfg.Remote.HomeserverURL = "http://home.invalid"
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func do(t *testing.T, a *App, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGetPostNotCached(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/v1/posts/o2:p1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d body %s", rec.Code, rec.Body.String())
	}
}

func TestGetPostAssemblesFacets(t *testing.T) {
	a := newTestApp(t)
	id := "o2:p1"
	if err := a.recs.PostDetails.Save(id, models.PostDetails{ID: id, Content: "hi", IndexedAt: 9}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := a.recs.PostCounts.Save(id, models.PostCounts{ID: id, Replies: 3}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := do(t, a, http.MethodGet, "/v1/posts/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rec.Code, rec.Body.String())
	}
	var got postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Details.Content != "hi" || got.Counts.Replies != 3 {
		t.Fatalf("unexpected body: %+v", got)
	}
	if got.Moderation.IsModerated || got.Moderation.IsBlurred {
		t.Fatalf("unmoderated post must be clear: %+v", got.Moderation)
	}
}

func TestBookmarkLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodPut, "/v1/bookmarks/o2:p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d body %s", rec.Code, rec.Body.String())
	}
	counts, err := a.recs.UserCounts.FindByID("o1owner")
	if err != nil || counts == nil || counts.Bookmarks != 1 {
		t.Fatalf("counter not updated: %+v %v", counts, err)
	}

	rec = do(t, a, http.MethodDelete, "/v1/bookmarks/o2:p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d body %s", rec.Code, rec.Body.String())
	}
	counts, _ = a.recs.UserCounts.FindByID("o1owner")
	if counts.Bookmarks != 0 {
		t.Fatalf("counter not decremented: %+v", counts)
	}
}

func TestBookmarkMalformedIDIsBadRequest(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodPut, "/v1/bookmarks/nocolon", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestStreamSliceFromCache(t *testing.T) {
	a := newTestApp(t)
	ids := []string{"o2:a", "o2:b", "o2:c"}
	for i, id := range ids {
		if err := a.recs.PostDetails.Save(id, models.PostDetails{ID: id, IndexedAt: int64(100 - i)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := a.streamStore.Upsert(streams.All, ids); err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	rec := do(t, a, http.MethodGet, "/v1/stream?id=all&skip=0&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rec.Code, rec.Body.String())
	}
	var got sliceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0] != "o2:a" {
		t.Fatalf("unexpected slice: %+v", got)
	}
}

func TestStreamUnknownIDIsBadRequest(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/v1/stream?id=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestMergeEndpoint(t *testing.T) {
	a := newTestApp(t)
	if err := a.recs.PostDetails.Save("o2:a", models.PostDetails{ID: "o2:a", IndexedAt: 5}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := a.streamStore.UpsertUnread(streams.Following, []string{"o2:a"}); err != nil {
		t.Fatalf("seed unread: %v", err)
	}

	rec := do(t, a, http.MethodPost, "/v1/stream/merge?id=following", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body %s", rec.Code, rec.Body.String())
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["merged"] != 1 {
		t.Fatalf("unexpected merge count: %+v", got)
	}
}

func TestGetSettingsBeforeInit(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/v1/settings", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestResetWipesMirror(t *testing.T) {
	a := newTestApp(t)
	if err := a.recs.PostDetails.Save("o1:a", models.PostDetails{ID: "o1:a", IndexedAt: 5}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := a.streamStore.Upsert(streams.All, []string{"o1:a"}); err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	if err := a.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := a.recs.PostDetails.FindByID("o1:a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("post survived reset: %+v", got)
	}
	if _, ok, err := a.streamStore.Read(streams.All); err != nil || ok {
		t.Fatalf("stream survived reset: ok=%v err=%v", ok, err)
	}
}

func TestStreamNegativeSkipIsBadRequest(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/v1/stream?id=all&skip=-1&limit=2", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body %s", rec.Code, rec.Body.String())
	}
}
