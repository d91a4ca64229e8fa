package models

// UserLink is a labeled URL on a profile.
type UserLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// UserDetails holds the profile facet of a user, keyed by the owner's
// public key (user IDs are not composite).
type UserDetails struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio,omitempty"`
	Image     string     `json:"image,omitempty"`
	Status    string     `json:"status,omitempty"`
	Links     []UserLink `json:"links,omitempty"`
	IndexedAt int64      `json:"indexed_at"`
}

// UserCounts holds the counter facet of a user. Mutated only through the
// side-effect coordinator.
type UserCounts struct {
	ID        string `json:"id"`
	Posts     int64  `json:"posts"`
	Replies   int64  `json:"replies"`
	Following int64  `json:"following"`
	Followers int64  `json:"followers"`
	Friends   int64  `json:"friends"`
	Tagged    int64  `json:"tagged"`
	Bookmarks int64  `json:"bookmarks"`
}
