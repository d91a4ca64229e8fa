// Package streams holds the named, ordered, deduplicated ID lists the UI
// reads feeds from, the slice resolver that pages them against the remote
// index service, and the merge logic that folds background discoveries
// into the visible lists.
package streams

import "strings"

// Source is the kind half of a stream identifier. Some sources are
// complete identifiers on their own; the derived ones are scoped to a
// target entity.
type Source string

const (
	SourceAll         Source = "all"
	SourceFollowing   Source = "following"
	SourceBookmarks   Source = "bookmarks"
	SourceInfluencers Source = "influencers"
	SourceRecommended Source = "recommended"

	// derived sources, scoped to a target entity
	SourceReplies Source = "replies"
	SourceAuthor  Source = "author"
)

func (s Source) derived() bool {
	return s == SourceReplies || s == SourceAuthor
}

func (s Source) known() bool {
	switch s {
	case SourceAll, SourceFollowing, SourceBookmarks, SourceInfluencers,
		SourceRecommended, SourceReplies, SourceAuthor:
		return true
	}
	return false
}

// ID is a stream identifier: a well-known source or a source derived from
// a target entity. Comparisons and table keys use the string form; the
// struct keeps producer code type-safe.
type ID struct {
	Source Source
	Target string
}

// Well-known stream identifiers.
var (
	All         = ID{Source: SourceAll}
	Following   = ID{Source: SourceFollowing}
	Bookmarks   = ID{Source: SourceBookmarks}
	Influencers = ID{Source: SourceInfluencers}
	Recommended = ID{Source: SourceRecommended}
)

// Replies identifies the reply stream of one post.
func Replies(postID string) ID {
	return ID{Source: SourceReplies, Target: postID}
}

// Author identifies the post stream of one user.
func Author(userID string) ID {
	return ID{Source: SourceAuthor, Target: userID}
}

// String renders the on-the-wire and table-key form.
func (id ID) String() string {
	if id.Target == "" {
		return string(id.Source)
	}
	return string(id.Source) + "/" + id.Target
}

// ParseID decodes the string form. It returns false for unknown sources,
// derived sources with no target, and targets on non-derived sources.
func ParseID(s string) (ID, bool) {
	src, target, _ := strings.Cut(s, "/")
	id := ID{Source: Source(src), Target: target}
	if !id.Source.known() {
		return ID{}, false
	}
	if id.Source.derived() != (target != "") {
		return ID{}, false
	}
	return id, true
}
