package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/streams"
)

// Bootstrap runs the session-start sequence: reconcile the settings
// document with the homeserver, then seed the mirror from the index
// service's one-shot bootstrap payload.
//
// Settings reconciliation is fatal; a session must never proceed with
// a settings document of unknown provenance. The bootstrap seed is
// best-effort: if the index service is down the session starts on
// whatever the mirror already holds.
func (a *App) Bootstrap(ctx context.Context) error {
	outcome, _, err := a.settings.Sync(ctx)
	if err != nil {
		return fmt.Errorf("settings reconcile: %w", err)
	}
	logger.Info("settings_reconciled", "outcome", outcome.String())

	boot, err := a.index.FetchBootstrap(ctx, a.owner)
	if err != nil {
		if errors.Is(err, errs.ErrRemoteUnavailable) {
			logger.Warn("bootstrap_seed_skipped", "error", err)
			return nil
		}
		return fmt.Errorf("bootstrap seed: %w", err)
	}

	if err := records.SaveUserViews(a.recs, boot.Users); err != nil {
		return err
	}
	if err := records.SavePostViews(a.recs, boot.Posts); err != nil {
		return err
	}

	seeds := []struct {
		id    streams.ID
		items []string
	}{
		{streams.All, boot.List.Stream},
		{streams.Influencers, boot.List.Influencers},
		{streams.Recommended, boot.List.Recommended},
	}
	for _, seed := range seeds {
		if len(seed.items) == 0 {
			continue
		}
		if err := a.streamStore.Upsert(seed.id, seed.items); err != nil {
			return err
		}
	}

	logger.Info("bootstrap_seeded",
		"users", len(boot.Users),
		"posts", len(boot.Posts),
		"stream", len(boot.List.Stream))
	return nil
}
