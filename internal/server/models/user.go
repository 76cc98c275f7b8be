// Package models holds the records persisted by the server repositories.
package models

import "time"

// User is a registered account. Email is stored normalised (trimmed and
// lower-cased) and is unique across all users. Digest and Salt are the
// Argon2id output and its salt; they never leave the service layer.
type User struct {
	ID        string
	Name      string
	Email     string
	Digest    []byte
	Salt      []byte
	CreatedAt time.Time
}
