package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/moderation"
	"github.com/pubky/franky-sub007/pkg/streams"
	"github.com/pubky/franky-sub007/pkg/utils"
)

// Handler builds the local API router. The API is loopback-only and
// unauthenticated; it serves the UI layer of the same session.
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/v1/posts/{id}", a.getPost).Methods(http.MethodGet)
	r.HandleFunc("/v1/users/{id}", a.getUser).Methods(http.MethodGet)

	r.HandleFunc("/v1/stream", a.getStreamSlice).Methods(http.MethodGet)
	r.HandleFunc("/v1/stream/merge", a.mergeStream).Methods(http.MethodPost)

	r.HandleFunc("/v1/bookmarks/{id}", a.createBookmark).Methods(http.MethodPut)
	r.HandleFunc("/v1/bookmarks/{id}", a.deleteBookmark).Methods(http.MethodDelete)
	r.HandleFunc("/v1/mutes/{id}", a.muteUser).Methods(http.MethodPut)
	r.HandleFunc("/v1/mutes/{id}", a.unmuteUser).Methods(http.MethodDelete)
	r.HandleFunc("/v1/posts/{id}/tags/{label}", a.tagPost).Methods(http.MethodPut)
	r.HandleFunc("/v1/posts/{id}/tags/{label}", a.untagPost).Methods(http.MethodDelete)

	r.HandleFunc("/v1/settings", a.getSettings).Methods(http.MethodGet)
	r.HandleFunc("/v1/settings", a.putSettings).Methods(http.MethodPut)

	r.HandleFunc("/v1/sync", a.syncNow).Methods(http.MethodPost)

	return r
}

// postResponse is a locally cached post plus its read-time moderation
// view.
type postResponse struct {
	models.PostView
	Moderation moderation.View `json:"moderation"`
}

func (a *App) getPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	details, err := a.recs.PostDetails.FindByID(id)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	if details == nil {
		utils.JSONError(w, http.StatusNotFound, "post not cached")
		return
	}

	view := postResponse{PostView: models.PostView{Details: *details}}
	if counts, err := a.recs.PostCounts.FindByID(id); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	} else if counts != nil {
		view.Counts = *counts
	}
	if rel, err := a.recs.PostRelationships.FindByID(id); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	} else {
		view.Relationships = rel
	}
	if tags, err := a.recs.PostTags.FindByID(id); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	} else if tags != nil {
		view.Tags = tags.Tags
	}
	if bm, err := a.recs.Bookmarks.FindByID(id); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	} else {
		view.Bookmark = bm
	}
	mod, err := a.enricher.Enrich(id)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	view.Moderation = mod

	_ = utils.JSONWrite(w, http.StatusOK, view)
}

type userResponse struct {
	models.UserView
	Moderation moderation.View `json:"moderation"`
}

func (a *App) getUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	details, err := a.recs.UserDetails.FindByID(id)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	if details == nil {
		utils.JSONError(w, http.StatusNotFound, "user not cached")
		return
	}

	view := userResponse{UserView: models.UserView{Details: *details}}
	if counts, err := a.recs.UserCounts.FindByID(id); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	} else if counts != nil {
		view.Counts = *counts
	}
	mod, err := a.enricher.Enrich(id)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	view.Moderation = mod

	_ = utils.JSONWrite(w, http.StatusOK, view)
}

// sliceResponse is one resolved stream window.
type sliceResponse struct {
	Items        []string `json:"items"`
	CacheMissIDs []string `json:"cache_miss_ids,omitempty"`
	NextSkip     *int     `json:"next_skip,omitempty"`
}

func (a *App) getStreamSlice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, ok := streams.ParseID(q.Get("id"))
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "unknown stream id")
		return
	}
	skip, _ := strconv.Atoi(q.Get("skip"))
	if skip < 0 {
		utils.JSONError(w, http.StatusBadRequest, "skip must not be negative")
		return
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = a.cfg.Sync.PageSize
	}

	slice, err := a.resolver.GetSlice(r.Context(), id, skip, limit, a.owner)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	if len(slice.CacheMissIDs) > 0 {
		if err := a.resolver.FetchMissingDetails(r.Context(), slice.CacheMissIDs, a.owner); err != nil {
			utils.JSONErrorFrom(w, err)
			return
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, sliceResponse{
		Items:        slice.Items,
		CacheMissIDs: slice.CacheMissIDs,
		NextSkip:     slice.NextSkip,
	})
}

func (a *App) mergeStream(w http.ResponseWriter, r *http.Request) {
	id, ok := streams.ParseID(r.URL.Query().Get("id"))
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "unknown stream id")
		return
	}
	n, err := a.merger.MergeUnread(id)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"merged": n})
}

func (a *App) createBookmark(w http.ResponseWriter, r *http.Request) {
	a.act(w, func() error { return a.coordinator.CreateBookmark(mux.Vars(r)["id"]) })
}

func (a *App) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	a.act(w, func() error { return a.coordinator.DeleteBookmark(mux.Vars(r)["id"]) })
}

func (a *App) muteUser(w http.ResponseWriter, r *http.Request) {
	a.act(w, func() error { return a.coordinator.MuteUser(mux.Vars(r)["id"]) })
}

func (a *App) unmuteUser(w http.ResponseWriter, r *http.Request) {
	a.act(w, func() error { return a.coordinator.UnmuteUser(mux.Vars(r)["id"]) })
}

func (a *App) tagPost(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	a.act(w, func() error { return a.coordinator.TagPost(v["id"], v["label"]) })
}

func (a *App) untagPost(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	a.act(w, func() error { return a.coordinator.UntagPost(v["id"], v["label"]) })
}

// act runs a local mutation and reports the standard ok envelope.
func (a *App) act(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) getSettings(w http.ResponseWriter, _ *http.Request) {
	doc, err := a.recs.Settings.FindByID(a.owner)
	if err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	if doc == nil {
		utils.JSONError(w, http.StatusNotFound, "settings not initialized")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, doc)
}

// putSettings accepts the full document, stamps a new version, and
// pushes it to the origin store.
func (a *App) putSettings(w http.ResponseWriter, r *http.Request) {
	var doc models.Settings
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	doc.Touch(time.Now().UnixMilli())
	if err := a.settings.PushLocal(r.Context(), doc); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, doc)
}

// syncNow triggers one sync pass outside the cron cadence.
func (a *App) syncNow(w http.ResponseWriter, r *http.Request) {
	if err := a.syncer.RunOnce(r.Context()); err != nil {
		utils.JSONErrorFrom(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}
