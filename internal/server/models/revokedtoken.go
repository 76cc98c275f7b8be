package models

import "time"

// RevokedToken marks an access token id as unusable until ExpiresAt, after
// which the token would be rejected anyway and the row can be purged.
type RevokedToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
