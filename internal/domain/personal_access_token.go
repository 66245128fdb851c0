package domain

import "time"

// PersonalAccessToken is an advisor API token. The plain token has the form
// "<id>|<secret>"; only the sha256 of the secret is stored.
type PersonalAccessToken struct {
	ID        int64
	TokenHash string
	UserID    int64
	Abilities string
	ExpiresAt *time.Time
}
