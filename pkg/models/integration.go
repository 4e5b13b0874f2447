package models

import "time"

// Integration is the OAuth grant a user made against Fortnox. There is at
// most one active row per user; tokens are rotated in place on refresh and
// the row is deactivated (never deleted) on disconnect.
type Integration struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"userId"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	Scope        string     `json:"scope"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	IsActive     bool       `json:"isActive"`
	HasSynced    bool       `json:"hasSynced"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// Expired reports whether the access token can no longer be used. An unknown
// expiry counts as expired so we never send a token we cannot vouch for.
func (i *Integration) Expired(now time.Time) bool {
	return i.ExpiresAt.IsZero() || i.ExpiresAt.Before(now)
}
