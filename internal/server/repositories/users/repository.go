// Package users stores user records keyed by normalised email.
package users

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the user store contract. Implementations normalise the email
// themselves, so no two records ever share a normalised email whatever the
// caller passes in.
type Repository interface {
	// InsertIfAbsent stores user unless its email is taken, in which case it
	// returns common.ErrAlreadyExists and stores nothing. Concurrent calls
	// for the same email yield exactly one success.
	InsertIfAbsent(ctx context.Context, user *models.User) error

	// FindByEmail returns common.ErrorNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
