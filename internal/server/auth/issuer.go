// Package auth mints and checks the signed, time-bounded bearer tokens handed
// out on successful login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// MinKeyLen is the shortest HMAC key the issuer accepts.
const MinKeyLen = 32

// DefaultTTL is how long an issued token stays valid unless configured otherwise.
const DefaultTTL = time.Hour

// Token is a decoded bearer token.
type Token struct {
	ID        string // jti
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Value     string // compact JWS, what the client presents
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer signs tokens with HS256 under a key held for the process lifetime.
// It keeps no mutable state and may be shared freely.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewIssuer copies key, so later changes to the caller's slice have no effect.
func NewIssuer(key []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyLen, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	i := &Issuer{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
		// rejects non-zero trailing bits, so every encoded signature bit counts
		jwt.WithStrictDecoding(),
	)
	return i, nil
}

// TTL reports the validity window of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a token for userID valid from now until now+TTL.
func (i *Issuer) Issue(userID string) (*Token, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty subject", common.ErrInvalidInput)
	}

	// JWT NumericDate carries whole seconds.
	now := i.now().UTC().Truncate(time.Second)
	t := &Token{
		ID:        uuid.NewString(),
		SubjectID: userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        t.ID,
		Subject:   t.SubjectID,
		IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("token signing error: %w", err)
	}
	t.Value = value

	return t, nil
}

// Verify checks the signature first and the expiry second, so a token that
// is both altered and stale reports ErrTokenTampered.
func (i *Issuer) Verify(value string) (*Token, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := i.parser.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrTokenTampered
	}

	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, common.ErrTokenTampered
	}

	return &Token{
		ID:        claims.ID,
		SubjectID: claims.Subject,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
		Value:     value,
	}, nil
}
