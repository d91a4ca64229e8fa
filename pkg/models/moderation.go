package models

// ModeratedType distinguishes what kind of entity a moderation record
// refers to.
type ModeratedType string

const (
	ModeratedPost ModeratedType = "POST"
	ModeratedUser ModeratedType = "USER"
)

// ModerationRecord marks an entity as flagged. IsBlurred is the stored
// default; the effective blur decision is computed at read time and never
// written back here.
type ModerationRecord struct {
	ID        string        `json:"id"`
	Type      ModeratedType `json:"type"`
	IsBlurred bool          `json:"is_blurred"`
	CreatedAt int64         `json:"created_at"`
}

// Bookmark marks a post as saved by the viewer. Row existence is the
// boolean signal; there is no separate flag field.
type Bookmark struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}
