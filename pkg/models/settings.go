package models

// NotificationSettings selects which events the user wants surfaced.
type NotificationSettings struct {
	Follows   bool `json:"follows"`
	Replies   bool `json:"replies"`
	Reposts   bool `json:"reposts"`
	Tags      bool `json:"tags"`
	Mentions  bool `json:"mentions"`
	Bookmarks bool `json:"bookmarks"`
}

// PrivacySettings holds coarse visibility preferences.
type PrivacySettings struct {
	ShowFollowers bool `json:"show_followers"`
	ShowFollowing bool `json:"show_following"`
	// DisableBlur is the global "never blur moderated content" switch.
	// When set it overrides every per-entity blur default.
	DisableBlur bool `json:"disable_blur"`
}

// Settings is the user-owned settings document mirrored from the origin
// store. Version increases monotonically on every local change and is the
// primary precedence tiebreaker; UpdatedAt is the secondary one.
type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
	Muted         []string             `json:"muted,omitempty"`
	Language      string               `json:"language,omitempty"`
	UpdatedAt     int64                `json:"updatedAt"`
	Version       int64                `json:"version"`
}

// Touch bumps the version and records the mutation time. Call on every
// local change before persisting.
func (s *Settings) Touch(now int64) {
	s.Version++
	s.UpdatedAt = now
}
