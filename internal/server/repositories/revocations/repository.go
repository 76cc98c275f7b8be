// Package revocations records access token ids that were explicitly logged
// out before their natural expiry.
package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines the revocation list operations.
type Repository interface {
	// Revoke marks token.TokenID unusable until token.ExpiresAt. Revoking an
	// id twice is not an error.
	Revoke(ctx context.Context, token *models.RevokedToken) error

	// IsRevoked reports whether tokenID is on the list.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// PurgeExpired drops entries whose token has expired by now and returns
	// how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
