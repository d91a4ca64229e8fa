// Package settings reconciles the local settings document against the
// copy on the user-owned origin store. Precedence is version first,
// timestamp second; the signed-in user is the only authoritative writer,
// so no merge is ever attempted.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
)

// DocumentPath is the per-owner path of the settings document on the
// origin store.
const DocumentPath = "/pub/franky/settings.json"

// OriginStore is the slice of the homeserver client the synchronizer
// needs.
type OriginStore interface {
	Get(ctx context.Context, owner, path string) ([]byte, bool, error)
	Put(ctx context.Context, owner, path string, body []byte) error
}

// Outcome reports which side won a sync.
type Outcome int

const (
	// OutcomeRemoteAdopted: the remote document superseded the local one
	// and was persisted locally. No write-back occurred.
	OutcomeRemoteAdopted Outcome = iota
	// OutcomeLocalPushed: the local document won (or the remote did not
	// exist) and was pushed to the origin store.
	OutcomeLocalPushed
)

func (o Outcome) String() string {
	if o == OutcomeRemoteAdopted {
		return "remote_adopted"
	}
	return "local_pushed"
}

// Default returns the settings document for a fresh session.
func Default() models.Settings {
	return models.Settings{
		Notifications: models.NotificationSettings{
			Follows:   true,
			Replies:   true,
			Reposts:   true,
			Tags:      true,
			Mentions:  true,
			Bookmarks: true,
		},
		Privacy: models.PrivacySettings{
			ShowFollowers: true,
			ShowFollowing: true,
		},
		Language: "en",
	}
}

// Synchronizer reconciles one owner's settings document.
type Synchronizer struct {
	recs   *records.Records
	origin OriginStore
	owner  string
}

// New builds a synchronizer for the signed-in owner.
func New(recs *records.Records, origin OriginStore, owner string) *Synchronizer {
	return &Synchronizer{recs: recs, origin: origin, owner: owner}
}

// remoteWins implements the precedence rule: higher version wins; on a
// version tie the newer timestamp wins.
func remoteWins(local, remote models.Settings) bool {
	if remote.Version != local.Version {
		return remote.Version > local.Version
	}
	return remote.UpdatedAt > local.UpdatedAt
}

// Sync performs exactly one remote read and at most one remote write,
// never both an adopt and a push in the same call. The adopted document
// (remote or local) is returned either way.
func (s *Synchronizer) Sync(ctx context.Context) (Outcome, models.Settings, error) {
	local, err := s.recs.Settings.FindByID(s.owner)
	if err != nil {
		return 0, models.Settings{}, err
	}
	if local == nil {
		d := Default()
		local = &d
	}

	raw, found, err := s.origin.Get(ctx, s.owner, DocumentPath)
	if err != nil {
		return 0, models.Settings{}, fmt.Errorf("settings sync: %w", err)
	}
	if found {
		var remote models.Settings
		if err := json.Unmarshal(raw, &remote); err != nil {
			return 0, models.Settings{}, fmt.Errorf("settings sync: %w: %w", errs.ErrInvalidResponse, err)
		}
		if remoteWins(*local, remote) {
			if err := s.recs.Settings.Save(s.owner, remote); err != nil {
				return 0, models.Settings{}, err
			}
			logger.Info("settings_remote_adopted", "version", remote.Version)
			return OutcomeRemoteAdopted, remote, nil
		}
	}

	if err := s.PushLocal(ctx, *local); err != nil {
		return 0, models.Settings{}, err
	}
	logger.Info("settings_local_pushed", "version", local.Version)
	return OutcomeLocalPushed, *local, nil
}

// PushLocal persists the document locally and writes it to the origin
// store. Used after every local settings mutation.
func (s *Synchronizer) PushLocal(ctx context.Context, doc models.Settings) error {
	if err := s.recs.Settings.Save(s.owner, doc); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("settings push: %w", err)
	}
	if err := s.origin.Put(ctx, s.owner, DocumentPath, body); err != nil {
		return fmt.Errorf("settings push: %w", err)
	}
	return nil
}
