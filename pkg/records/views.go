package records

import (
	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/ident"
	"github.com/pubky/franky-sub007/pkg/models"
)

// SavePostViews persists every facet of the given post views, last write
// wins per ID within the batch. Viewer-scoped bookmarks returned by the
// index service are persisted too, so a fresh session sees its own
// bookmark rows without a separate fetch.
//
// Views arriving without a composite ID are keyed by the ID extracted
// from their remote locator. A view carrying neither fails the whole
// batch before anything is written; rows are never stored under a
// guessed key.
func SavePostViews(recs *Records, views []models.PostView) error {
	if len(views) == 0 {
		return nil
	}
	for i := range views {
		if views[i].Details.ID != "" {
			continue
		}
		id, ok := ident.FromRemoteURI(views[i].Details.URI, ident.ResourcePosts)
		if !ok {
			return errs.MalformedID(views[i].Details.URI)
		}
		views[i].Details.ID = id
	}
	ids := make([]string, 0, len(views))
	details := make([]models.PostDetails, 0, len(views))
	counts := make([]models.PostCounts, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.Details.ID)
		details = append(details, v.Details)
		counts = append(counts, v.Counts)
	}
	if err := recs.PostDetails.BulkSave(ids, details); err != nil {
		return err
	}
	if err := recs.PostCounts.BulkSave(ids, counts); err != nil {
		return err
	}
	for _, v := range views {
		id := v.Details.ID
		if v.Relationships != nil {
			if err := recs.PostRelationships.Save(id, *v.Relationships); err != nil {
				return err
			}
		}
		if len(v.Tags) > 0 {
			if err := recs.PostTags.Save(id, models.PostTags{ID: id, Tags: v.Tags}); err != nil {
				return err
			}
		}
		if v.Bookmark != nil {
			if err := recs.Bookmarks.Save(id, *v.Bookmark); err != nil {
				return err
			}
		}
	}
	return nil
}

// SaveUserViews persists both facets of the given user views.
func SaveUserViews(recs *Records, views []models.UserView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]string, 0, len(views))
	details := make([]models.UserDetails, 0, len(views))
	counts := make([]models.UserCounts, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.Details.ID)
		details = append(details, v.Details)
		counts = append(counts, v.Counts)
	}
	if err := recs.UserDetails.BulkSave(ids, details); err != nil {
		return err
	}
	return recs.UserCounts.BulkSave(ids, counts)
}
