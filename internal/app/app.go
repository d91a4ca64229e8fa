// Package app wires the engine together for one session: local mirror,
// entity stores, stream machinery, remote clients, background syncer,
// and the local HTTP API the UI layer reads from.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pubky/franky-sub007/pkg/actions"
	"github.com/pubky/franky-sub007/pkg/config"
	"github.com/pubky/franky-sub007/pkg/homeserver"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/moderation"
	"github.com/pubky/franky-sub007/pkg/nexus"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/settings"
	"github.com/pubky/franky-sub007/pkg/store"
	"github.com/pubky/franky-sub007/pkg/streams"
	"github.com/pubky/franky-sub007/pkg/syncer"
)

// App encapsulates one signed-in session. It is constructed at session
// start and closed at logout; there is no ambient global state.
type App struct {
	cfg   config.Config
	owner string

	store       *store.Store
	recs        *records.Records
	streamStore *streams.Store
	merger      *streams.Merger
	resolver    *streams.Resolver
	coordinator *actions.Coordinator
	enricher    *moderation.Enricher
	settings    *settings.Synchronizer
	syncer      *syncer.Syncer

	index  *nexus.Client
	origin *homeserver.Client

	srv        *http.Server
	stopSyncer context.CancelFunc
}

// trackedStreams are the feeds the background syncer polls.
func trackedStreams() []streams.ID {
	return []streams.ID{streams.All, streams.Following, streams.Bookmarks}
}

// New validates the config and builds every component. The local mirror
// is opened here; remote collaborators are not contacted until Run.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owner := cfg.Session.Owner

	s, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local mirror at %s: %w", cfg.Storage.DBPath, err)
	}

	recs := records.New(s)
	streamStore := streams.NewStore(s, recs.PostDetails)
	index := nexus.New(cfg.Remote.NexusURL, cfg.Remote.Timeout())
	origin := homeserver.New(cfg.Remote.HomeserverURL, cfg.Remote.Timeout())
	sync := settings.New(recs, origin, owner)

	a := &App{
		cfg:         cfg,
		owner:       owner,
		store:       s,
		recs:        recs,
		streamStore: streamStore,
		merger:      streams.NewMerger(streamStore, recs.PostDetails),
		resolver:    streams.NewResolver(streamStore, recs, index),
		coordinator: actions.New(s, recs, owner),
		enricher:    moderation.NewEnricher(recs, owner),
		settings:    sync,
		index:       index,
		origin:      origin,
	}
	a.syncer = syncer.New(cfg.Sync, streamStore, recs, index, sync, owner, trackedStreams())
	return a, nil
}

// Run bootstraps the session, starts the background syncer and the
// local API, and blocks until ctx is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	stop, err := a.syncer.Start(ctx)
	if err != nil {
		return err
	}
	a.stopSyncer = stop

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Reset wipes the mirror: every entity table and every stream variant.
// Used at logout so the next sign-in starts from a clean slate.
func (a *App) Reset() error {
	tables := []store.Table{
		a.recs.PostDetails.Table(), a.recs.PostCounts.Table(),
		a.recs.PostRelationships.Table(), a.recs.PostTags.Table(),
		a.recs.UserDetails.Table(), a.recs.UserCounts.Table(),
		a.recs.Bookmarks.Table(), a.recs.Moderation.Table(),
		a.recs.Settings.Table(),
		streams.TableStreams, streams.TableUnread, streams.TableStreamQueues,
	}
	for _, t := range tables {
		if err := a.store.Clear(t); err != nil {
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	logger.Info("mirror_reset", "owner", a.owner)
	return nil
}

// Close stops background work and releases the local mirror.
func (a *App) Close() error {
	if a.stopSyncer != nil {
		a.stopSyncer()
	}
	if a.srv != nil {
		_ = a.srv.Close()
	}
	return a.store.Close()
}

func (a *App) startHTTP(ctx context.Context) <-chan error {
	a.srv = &http.Server{
		Addr:    a.cfg.Addr(),
		Handler: a.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("local_api_listening", "addr", a.cfg.Addr())
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		_ = a.srv.Close()
	}()
	return errCh
}
