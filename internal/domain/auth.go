package domain

import "time"

// Session describes a credential minted for a user. Only its metadata is
// kept; the token itself lives in the client's cookie.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
