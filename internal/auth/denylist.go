package auth

import (
	"context"
	"time"
)

// Denylist records revoked token IDs until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
