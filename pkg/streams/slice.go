package streams

import (
	"context"

	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
)

// IndexSource is the slice of the remote index service the resolver
// needs. The stream argument is the string form of a stream ID.
type IndexSource interface {
	FetchStreamPage(ctx context.Context, stream string, skip, limit int, viewerID string) (models.StreamPage, error)
	FetchPostsByIDs(ctx context.Context, ids []string, viewerID string) ([]models.PostView, error)
}

// Slice is the answer to one window request. CacheMissIDs are members
// whose detail rows are not cached yet; NextSkip is nil on a cache hit
// (no cursor needed) and at end of stream.
type Slice struct {
	Items        []string
	CacheMissIDs []string
	NextSkip     *int
}

// Resolver answers windowed reads against a stream, fetching membership
// pages from the index service only when the cache cannot satisfy the
// window. Concurrent calls for the same stream are not deduplicated
// here; callers serialize pagination per stream.
type Resolver struct {
	streams *Store
	recs    *records.Records
	index   IndexSource
}

// NewResolver wires the resolver.
func NewResolver(streams *Store, recs *records.Records, index IndexSource) *Resolver {
	return &Resolver{streams: streams, recs: recs, index: index}
}

// GetSlice returns the requested window. Membership ("which IDs belong
// here") is decoupled from detail ("what is each ID") so that detail
// backfill can be batched across streams; a post appearing in both a
// timeline and a reply stream is only detail-fetched once.
func (r *Resolver) GetSlice(ctx context.Context, id ID, skip, limit int, viewerID string) (Slice, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		return Slice{}, nil
	}
	cached, _, err := r.streams.Read(id)
	if err != nil {
		return Slice{}, err
	}
	var items []string
	if cached != nil {
		items = cached.Items
	}

	if len(items) >= skip+limit {
		window := items[skip : skip+limit]
		missing, err := r.recs.PostDetails.MissingIDs(window)
		if err != nil {
			return Slice{}, err
		}
		return Slice{Items: window, CacheMissIDs: missing}, nil
	}

	// Cache cannot satisfy the window; ask the index service. The cache
	// is only touched after a successful response, so a failed fetch
	// leaves no partial writes behind.
	page, err := r.index.FetchStreamPage(ctx, id.String(), skip, limit, viewerID)
	if err != nil {
		return Slice{}, err
	}
	if len(page.IDs) == 0 {
		return Slice{}, nil
	}

	merged := items
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it] = struct{}{}
	}
	for _, it := range page.IDs {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		merged = append(merged, it)
	}
	if err := r.streams.Upsert(id, merged); err != nil {
		return Slice{}, err
	}

	missing, err := r.recs.PostDetails.MissingIDs(page.IDs)
	if err != nil {
		return Slice{}, err
	}
	logger.Debug("stream_page_fetched", "stream", id.String(), "skip", skip,
		"count", len(page.IDs), "misses", len(missing))
	return Slice{Items: page.IDs, CacheMissIDs: missing, NextSkip: page.NextSkip}, nil
}

// FetchMissingDetails backfills every facet of the given posts from the
// index service in one batch. IDs the remote does not know are skipped.
func (r *Resolver) FetchMissingDetails(ctx context.Context, ids []string, viewerID string) error {
	if len(ids) == 0 {
		return nil
	}
	views, err := r.index.FetchPostsByIDs(ctx, ids, viewerID)
	if err != nil {
		return err
	}
	return records.SavePostViews(r.recs, views)
}
