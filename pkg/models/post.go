package models

// TombstoneContent marks a logically deleted post. The row stays in place
// so streams referencing the post can still resolve it.
const TombstoneContent = "[DELETED]"

// PostKind mirrors the content kinds the index service reports.
type PostKind string

const (
	PostKindShort PostKind = "short"
	PostKindLong  PostKind = "long"
	PostKindImage PostKind = "image"
	PostKindVideo PostKind = "video"
	PostKindLink  PostKind = "link"
	PostKindFile  PostKind = "file"
)

// PostDetails holds the content facet of a post, keyed by composite ID.
type PostDetails struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Author      string   `json:"author"`
	Kind        PostKind `json:"kind"`
	URI         string   `json:"uri,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	IndexedAt   int64    `json:"indexed_at"`
}

// Deleted reports whether the post carries the tombstone sentinel.
func (p PostDetails) Deleted() bool { return p.Content == TombstoneContent }

// PostCounts holds the counter facet of a post. All fields are clamped at
// zero by the side-effect coordinator.
type PostCounts struct {
	ID         string `json:"id"`
	Replies    int64  `json:"replies"`
	Reposts    int64  `json:"reposts"`
	Tags       int64  `json:"tags"`
	UniqueTags int64  `json:"unique_tags"`
}

// PostRelationships records what a post points at.
type PostRelationships struct {
	ID        string   `json:"id"`
	RepliedTo string   `json:"replied,omitempty"`
	RepostOf  string   `json:"reposted,omitempty"`
	Mentioned []string `json:"mentioned,omitempty"`
}

// PostTag is one label applied to a post together with who applied it.
type PostTag struct {
	Label        string   `json:"label"`
	Taggers      []string `json:"taggers"`
	TaggersCount int64    `json:"taggers_count"`
}

// PostTags holds the ordered tag facet of a post.
type PostTags struct {
	ID   string    `json:"id"`
	Tags []PostTag `json:"tags"`
}
