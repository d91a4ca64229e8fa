package models

// PostView is the full entity shape the index service returns for one
// post: every locally stored facet plus the viewer-scoped bookmark.
type PostView struct {
	Details       PostDetails        `json:"details"`
	Counts        PostCounts         `json:"counts"`
	Relationships *PostRelationships `json:"relationships,omitempty"`
	Tags          []PostTag          `json:"tags,omitempty"`
	Bookmark      *Bookmark          `json:"bookmark,omitempty"`
}

// UserView is the full entity shape the index service returns for one
// user.
type UserView struct {
	Details UserDetails `json:"details"`
	Counts  UserCounts  `json:"counts"`
}

// StreamPage is one page of stream membership from the index service:
// IDs only, details are a separate deferred fetch. A nil NextSkip means
// the remote reported end of stream.
type StreamPage struct {
	IDs      []string `json:"ids"`
	NextSkip *int     `json:"next_skip,omitempty"`
}

// BootstrapList carries the seed streams delivered at session start.
type BootstrapList struct {
	Stream      []string `json:"stream"`
	Influencers []string `json:"influencers"`
	Recommended []string `json:"recommended"`
}

// Bootstrap is the one-shot session seed from the index service.
type Bootstrap struct {
	Users []UserView    `json:"users"`
	Posts []PostView    `json:"posts"`
	List  BootstrapList `json:"list"`
}
