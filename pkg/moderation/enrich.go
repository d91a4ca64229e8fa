// Package moderation computes the read-time blur decision for flagged
// entities. Stored moderation records are never mutated here.
package moderation

import (
	"github.com/pubky/franky-sub007/pkg/records"
)

// View is what enrichment adds to an entity. IsBlurred is the effective
// decision, distinct from the stored default.
type View struct {
	IsModerated bool `json:"is_moderated"`
	IsBlurred   bool `json:"is_blurred"`
}

// EffectiveBlur decides whether a moderated entity is shown blurred.
// The global "never blur" preference always wins; unmoderated entities
// are never blurred; otherwise the stored default applies, so a user's
// own unblur choice persists until they re-hide the entity.
func EffectiveBlur(isModerated, storedBlur, globalBlurDisabled bool) bool {
	if globalBlurDisabled {
		return false
	}
	if !isModerated {
		return false
	}
	return storedBlur
}

// Enricher derives moderation views from the stored records and the
// viewer's settings document.
type Enricher struct {
	recs  *records.Records
	owner string
}

// NewEnricher binds the enricher to the signed-in owner, whose settings
// hold the global blur preference.
func NewEnricher(recs *records.Records, owner string) *Enricher {
	return &Enricher{recs: recs, owner: owner}
}

func (e *Enricher) globalBlurDisabled() (bool, error) {
	s, err := e.recs.Settings.FindByID(e.owner)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	return s.Privacy.DisableBlur, nil
}

// Enrich returns the moderation view for one entity ID.
func (e *Enricher) Enrich(id string) (View, error) {
	views, err := e.EnrichAll([]string{id})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// EnrichAll returns one view per input ID in the same order, using a
// single bulk record lookup. Entities with no moderation record are not
// moderated and never blurred.
func (e *Enricher) EnrichAll(ids []string) ([]View, error) {
	disabled, err := e.globalBlurDisabled()
	if err != nil {
		return nil, err
	}
	recs, err := e.recs.Moderation.FindByIDsPreserveOrder(ids)
	if err != nil {
		return nil, err
	}
	out := make([]View, len(ids))
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		out[i] = View{
			IsModerated: true,
			IsBlurred:   EffectiveBlur(true, rec.IsBlurred, disabled),
		}
	}
	return out, nil
}
