// Package actions is the transactional side-effect coordinator: the one
// place allowed to mutate counters. Every action checks for idempotency
// first, then applies all of its table writes in a single store
// transaction, so a failure anywhere rolls the whole action back.
package actions

import (
	"slices"
	"time"

	"github.com/pubky/franky-sub007/pkg/errs"
	"github.com/pubky/franky-sub007/pkg/ident"
	"github.com/pubky/franky-sub007/pkg/logger"
	"github.com/pubky/franky-sub007/pkg/models"
	"github.com/pubky/franky-sub007/pkg/records"
	"github.com/pubky/franky-sub007/pkg/store"
	"github.com/pubky/franky-sub007/pkg/streams"
)

// Coordinator applies user actions against the local mirror.
type Coordinator struct {
	s     *store.Store
	recs  *records.Records
	owner string
	now   func() int64
}

// New builds a coordinator for the signed-in owner.
func New(s *store.Store, recs *records.Records, owner string) *Coordinator {
	return &Coordinator{
		s:     s,
		recs:  recs,
		owner: owner,
		now:   func() int64 { return time.Now().UTC().UnixMilli() },
	}
}

// resolvePostID accepts the composite ID or the remote post locator the
// UI layer happens to hold. Anything that cannot be reduced to a
// composite ID fails the whole action; actions never write under a
// guessed key.
func resolvePostID(ref string) (string, error) {
	id, ok := ident.FromIDOrURI(ref, ident.ResourcePosts)
	if !ok {
		return "", errs.MalformedID(ref)
	}
	return id, nil
}

// clamp keeps a counter delta from taking the stored value below zero,
// even if the local counter was already inconsistent with the remote.
func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func (c *Coordinator) ownerCounts(tx *store.Txn) (*models.UserCounts, error) {
	counts, err := c.recs.UserCounts.FindByIDTx(tx, c.owner)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = &models.UserCounts{ID: c.owner}
	}
	return counts, nil
}

// CreateBookmark saves a bookmark row, bumps the owner's bookmark
// counter by one, and prepends the post to the bookmarks stream. Calling
// it twice is safe: the second call is a no-op.
func (c *Coordinator) CreateBookmark(postID string) error {
	postID, err := resolvePostID(postID)
	if err != nil {
		return err
	}
	err = c.s.Transaction(func(tx *store.Txn) error {
		existing, err := c.recs.Bookmarks.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		bm := models.Bookmark{ID: postID, CreatedAt: c.now()}
		if err := c.recs.Bookmarks.SaveTx(tx, postID, bm); err != nil {
			return err
		}
		counts, err := c.ownerCounts(tx)
		if err != nil {
			return err
		}
		counts.Bookmarks = clamp(counts.Bookmarks + 1)
		if err := c.recs.UserCounts.SaveTx(tx, c.owner, *counts); err != nil {
			return err
		}
		return streams.PrependTx(tx, streams.Bookmarks, postID)
	})
	if err != nil {
		return errs.WriteFailed("create bookmark", err)
	}
	logger.Info("bookmark_created", "post", postID)
	return nil
}

// DeleteBookmark removes the bookmark row, decrements the owner's
// bookmark counter (never below zero), and removes the post from the
// bookmarks stream. A no-op when the bookmark does not exist.
func (c *Coordinator) DeleteBookmark(postID string) error {
	postID, err := resolvePostID(postID)
	if err != nil {
		return err
	}
	err = c.s.Transaction(func(tx *store.Txn) error {
		existing, err := c.recs.Bookmarks.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := c.recs.Bookmarks.DeleteTx(tx, postID); err != nil {
			return err
		}
		counts, err := c.ownerCounts(tx)
		if err != nil {
			return err
		}
		counts.Bookmarks = clamp(counts.Bookmarks - 1)
		if err := c.recs.UserCounts.SaveTx(tx, c.owner, *counts); err != nil {
			return err
		}
		return streams.RemoveTx(tx, streams.Bookmarks, postID)
	})
	if err != nil {
		return errs.WriteFailed("delete bookmark", err)
	}
	logger.Info("bookmark_deleted", "post", postID)
	return nil
}

// MuteUser adds a user to the settings mute list and bumps the document
// version. A no-op when already muted.
func (c *Coordinator) MuteUser(userID string) error {
	return c.setMuted(userID, true)
}

// UnmuteUser removes a user from the settings mute list and bumps the
// document version. A no-op when not muted.
func (c *Coordinator) UnmuteUser(userID string) error {
	return c.setMuted(userID, false)
}

func (c *Coordinator) setMuted(userID string, muted bool) error {
	err := c.s.Transaction(func(tx *store.Txn) error {
		doc, err := c.recs.Settings.FindByIDTx(tx, c.owner)
		if err != nil {
			return err
		}
		if doc == nil {
			doc = &models.Settings{}
		}
		already := slices.Contains(doc.Muted, userID)
		if already == muted {
			return nil
		}
		if muted {
			doc.Muted = append(doc.Muted, userID)
		} else {
			doc.Muted = slices.DeleteFunc(doc.Muted, func(id string) bool {
				return id == userID
			})
		}
		doc.Touch(c.now())
		return c.recs.Settings.SaveTx(tx, c.owner, *doc)
	})
	if err != nil {
		return errs.WriteFailed("update mute list", err)
	}
	logger.Info("mute_list_updated", "user", userID, "muted", muted)
	return nil
}

// TagPost adds the owner as a tagger of label on a post, keeping the tag
// list, the tagger counts, and the post's counter facet consistent. A
// no-op when the owner already applied that label.
func (c *Coordinator) TagPost(postID, label string) error {
	postID, err := resolvePostID(postID)
	if err != nil {
		return err
	}
	err = c.s.Transaction(func(tx *store.Txn) error {
		tags, err := c.recs.PostTags.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if tags == nil {
			tags = &models.PostTags{ID: postID}
		}
		idx := slices.IndexFunc(tags.Tags, func(t models.PostTag) bool {
			return t.Label == label
		})
		newLabel := idx < 0
		if !newLabel && slices.Contains(tags.Tags[idx].Taggers, c.owner) {
			return nil
		}
		if newLabel {
			tags.Tags = append(tags.Tags, models.PostTag{
				Label:        label,
				Taggers:      []string{c.owner},
				TaggersCount: 1,
			})
		} else {
			t := &tags.Tags[idx]
			t.Taggers = append(t.Taggers, c.owner)
			t.TaggersCount = clamp(t.TaggersCount + 1)
		}
		if err := c.recs.PostTags.SaveTx(tx, postID, *tags); err != nil {
			return err
		}
		counts, err := c.recs.PostCounts.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if counts == nil {
			counts = &models.PostCounts{ID: postID}
		}
		counts.Tags = clamp(counts.Tags + 1)
		if newLabel {
			counts.UniqueTags = clamp(counts.UniqueTags + 1)
		}
		return c.recs.PostCounts.SaveTx(tx, postID, *counts)
	})
	if err != nil {
		return errs.WriteFailed("tag post", err)
	}
	logger.Info("post_tagged", "post", postID, "label", label)
	return nil
}

// UntagPost removes the owner's label from a post, dropping the tag
// entry entirely when its last tagger leaves. A no-op when the owner
// never applied that label.
func (c *Coordinator) UntagPost(postID, label string) error {
	postID, err := resolvePostID(postID)
	if err != nil {
		return err
	}
	err = c.s.Transaction(func(tx *store.Txn) error {
		tags, err := c.recs.PostTags.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		idx := slices.IndexFunc(tags.Tags, func(t models.PostTag) bool {
			return t.Label == label
		})
		if idx < 0 || !slices.Contains(tags.Tags[idx].Taggers, c.owner) {
			return nil
		}
		t := &tags.Tags[idx]
		t.Taggers = slices.DeleteFunc(t.Taggers, func(id string) bool {
			return id == c.owner
		})
		t.TaggersCount = clamp(t.TaggersCount - 1)
		emptied := len(t.Taggers) == 0
		if emptied {
			tags.Tags = slices.Delete(tags.Tags, idx, idx+1)
		}
		if err := c.recs.PostTags.SaveTx(tx, postID, *tags); err != nil {
			return err
		}
		counts, err := c.recs.PostCounts.FindByIDTx(tx, postID)
		if err != nil {
			return err
		}
		if counts == nil {
			counts = &models.PostCounts{ID: postID}
		}
		counts.Tags = clamp(counts.Tags - 1)
		if emptied {
			counts.UniqueTags = clamp(counts.UniqueTags - 1)
		}
		return c.recs.PostCounts.SaveTx(tx, postID, *counts)
	})
	if err != nil {
		return errs.WriteFailed("untag post", err)
	}
	logger.Info("post_untagged", "post", postID, "label", label)
	return nil
}
