package models

import "time"

// DropboxCredential is the single storage-provider credential a user holds.
// The row is replaced wholesale on refresh or re-consent (upsert keyed by
// user_id) and deleted on explicit revoke.
type DropboxCredential struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	AccountID    string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token should be considered unusable.
// A small leeway guards against using a token that expires mid-request.
func (c *DropboxCredential) Expired(now time.Time, leeway time.Duration) bool {
	return !now.Add(leeway).Before(c.ExpiresAt)
}
