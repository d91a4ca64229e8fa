// Package syncer runs the periodic background sync: it polls tracked
// streams for fresh items, stages discoveries in each stream's unread
// companion, backfills missing entity details under a rate limit, and
// reconciles the settings document. Merging unread items into the
// visible streams stays an explicit caller decision.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/time/rate"

	"github.com/pubky/franky-sub007/pkg/config"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/settings"
	"github.com/pubky/franky-sub007/pkg/streams"
)

// IndexSource is the slice of the index service client the syncer uses.
type IndexSource interface {
	FetchStreamPage(ctx context.Context, stream string, skip, limit int, viewerID string) (models.StreamPage, error)
	FetchPostsByIDs(ctx context.Context, ids []string, viewerID string) ([]models.PostView, error)
}

// Syncer owns the polling loop.
type Syncer struct {
	cfg      config.SyncConfig
	streams  *streams.Store
	recs     *records.Records
	index    IndexSource
	settings *settings.Synchronizer
	limiter  *rate.Limiter
	owner    string
	tracked  []streams.ID
}

// New builds a syncer polling the given streams for the signed-in owner.
func New(cfg config.SyncConfig, st *streams.Store, recs *records.Records,
	index IndexSource, sync *settings.Synchronizer, owner string, tracked []streams.ID) *Syncer {
	rps := cfg.BackfillRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.BackfillBurst
	if burst <= 0 {
		burst = 10
	}
	return &Syncer{
		cfg:      cfg,
		streams:  st,
		recs:     recs,
		index:    index,
		settings: sync,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		owner:    owner,
		tracked:  tracked,
	}
}

// Start launches the scheduler goroutine and returns a cancel func. A
// disabled config yields a no-op cancel.
func (s *Syncer) Start(ctx context.Context) (context.CancelFunc, error) {
	if !s.cfg.Enabled {
		logger.Info("sync_disabled")
		return func() {}, nil
	}
	cronExpr := s.cfg.Cron
	if cronExpr == "" {
		cronExpr = "*/5 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid sync cron expression: %s", s.cfg.Cron)
	}
	logger.Info("sync_enabled", "cron", cronExpr, "streams", len(s.tracked))
	ctx2, cancel := context.WithCancel(ctx)
	go s.runScheduler(ctx2, cronExpr)
	return cancel, nil
}

// runScheduler sleeps until the next cron tick and triggers a run.
func (s *Syncer) runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sync_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sync_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := s.RunOnce(ctx); err != nil {
				logger.Error("sync_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sync_scheduler_stopping")
			return
		}
	}
}

// RunOnce polls every tracked stream once and reconciles settings.
// Stream failures do not abort the run; the first error is returned
// after every stream has been attempted.
func (s *Syncer) RunOnce(ctx context.Context) error {
	var firstErr error
	for _, id := range s.tracked {
		if err := s.pollStream(ctx, id); err != nil {
			logger.Warn("sync_stream_failed", "stream", id.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if _, _, err := s.settings.Sync(ctx); err != nil {
		logger.Warn("sync_settings_failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// pollStream fetches the freshest membership page and stages unseen IDs
// in the unread companion, newest first. The head lookup suppresses the
// poll entirely while a previous backfill is still incomplete.
func (s *Syncer) pollStream(ctx context.Context, id streams.ID) error {
	head, err := s.streams.GetHead(id)
	if err != nil {
		return err
	}
	if head.Kind == streams.HeadSkipFetch {
		logger.Debug("sync_stream_skipped", "stream", id.String())
		return nil
	}

	pageSize := s.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 30
	}
	page, err := s.index.FetchStreamPage(ctx, id.String(), 0, pageSize, s.owner)
	if err != nil {
		return err
	}
	if len(page.IDs) == 0 {
		return nil
	}

	unread, _, err := s.streams.ReadUnread(id)
	if err != nil {
		return err
	}
	main, _, err := s.streams.Read(id)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	var staged []string
	if unread != nil {
		staged = unread.Items
		for _, item := range staged {
			seen[item] = struct{}{}
		}
	}
	if main != nil {
		for _, item := range main.Items {
			seen[item] = struct{}{}
		}
	}

	var fresh []string
	for _, item := range page.IDs {
		if _, dup := seen[item]; dup {
			continue
		}
		fresh = append(fresh, item)
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := s.streams.UpsertUnread(id, append(fresh, staged...)); err != nil {
		return err
	}
	logger.Info("sync_stream_staged", "stream", id.String(), "fresh", len(fresh))

	return s.backfill(ctx, fresh)
}

// backfill resolves missing detail rows for the given IDs under the
// configured rate limit.
func (s *Syncer) backfill(ctx context.Context, ids []string) error {
	missing, err := s.recs.PostDetails.MissingIDs(ids)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	views, err := s.index.FetchPostsByIDs(ctx, missing, s.owner)
	if err != nil {
		return err
	}
	return records.SavePostViews(s.recs, views)
}
