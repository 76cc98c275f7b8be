// Package services contains server-side business logic. CredentialService
// handles signup, login, token authentication and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// Hasher derives and checks password digests.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (digest, salt []byte, err error)
	Verify(ctx context.Context, plaintext string, digest, salt []byte) bool
}

// TokenIssuer mints and checks bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (*auth.Token, error)
	Verify(value string) (*auth.Token, error)
}

// Recorder counts request outcomes.
type Recorder interface {
	SignupOutcome(outcome string)
	LoginOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) SignupOutcome(string) {}
func (nopRecorder) LoginOutcome(string)  {}

// SignupRequest is the transient signup payload.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// LoginRequest is the transient login payload.
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	User  *models.User
	Token *auth.Token
}

// Option configures a CredentialService.
type Option func(*CredentialService)

func WithRecorder(r Recorder) Option { return func(s *CredentialService) { s.recorder = r } }

func WithLogger(l logging.Logger) Option { return func(s *CredentialService) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *CredentialService) { s.now = now } }

// CredentialService holds no per-request state; all state lives in the
// repositories.
type CredentialService struct {
	users       users.Repository
	revocations revocations.Repository
	hasher      Hasher
	tokens      TokenIssuer
	policy      PasswordPolicy
	recorder    Recorder
	logger      logging.Logger
	now         func() time.Time

	// Verified against when the email is unknown, so both login failure
	// paths pay for exactly one digest derivation.
	decoyDigest []byte
	decoySalt   []byte
}

// NewCredentialService derives the decoy digest up front, which costs one
// hash at construction.
func NewCredentialService(ctx context.Context, ur users.Repository, rr revocations.Repository,
	h Hasher, tokens TokenIssuer, policy PasswordPolicy, opts ...Option) (*CredentialService, error) {

	s := &CredentialService{
		users:       ur,
		revocations: rr,
		hasher:      h,
		tokens:      tokens,
		policy:      policy,
		recorder:    nopRecorder{},
		logger:      logging.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	decoy, err := common.GenerateRandByteArray(32)
	if err != nil {
		return nil, fmt.Errorf("decoy generation error: %w", err)
	}
	s.decoyDigest, s.decoySalt, err = h.Hash(ctx, fmt.Sprintf("%x", decoy))
	if err != nil {
		return nil, fmt.Errorf("decoy hashing error: %w", err)
	}

	return s, nil
}

// Signup validates the request, hashes the password and stores the user.
// The returned user carries no digest or salt.
func (s *CredentialService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	u, err := s.signup(ctx, req)
	s.recorder.SignupOutcome(outcome(err))
	return u, err
}

func (s *CredentialService) signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := users.NormalizeEmail(req.Email)

	if err := validateSignupFields(name, email); err != nil {
		return nil, err
	}
	if err := s.policy.Check(req.Password); err != nil {
		return nil, err
	}

	digest, salt, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, s.internal(ctx, "password hashing failed", err)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Digest:    digest,
		Salt:      salt,
		CreatedAt: s.now().UTC(),
	}

	if err := s.users.InsertIfAbsent(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("signup: %w", err)
		}
		return nil, s.internal(ctx, "user insert failed", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return public(user), nil
}

// Login checks the credentials and mints a token. An unknown email and a
// wrong password both yield common.ErrInvalidCredentials after the same
// amount of hashing work.
func (s *CredentialService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	res, err := s.login(ctx, req)
	s.recorder.LoginOutcome(outcome(err))
	return res, err
}

func (s *CredentialService) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.internal(ctx, "user lookup failed", err)
		}
		s.hasher.Verify(ctx, req.Password, s.decoyDigest, s.decoySalt)
		return nil, s.rejected(ctx)
	}

	if !s.hasher.Verify(ctx, req.Password, user.Digest, user.Salt) {
		return nil, s.rejected(ctx)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "token issue failed", err)
	}

	return &LoginResult{User: public(user), Token: token}, nil
}

// Authenticate returns the user id a valid, unrevoked bearer token was
// issued to.
func (s *CredentialService) Authenticate(ctx context.Context, bearer string) (string, error) {
	tok, err := s.authenticate(ctx, bearer)
	if err != nil {
		return "", err
	}
	return tok.SubjectID, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *CredentialService) Logout(ctx context.Context, bearer string) error {
	tok, err := s.authenticate(ctx, bearer)
	if err != nil {
		return err
	}

	err = s.revocations.Revoke(ctx, &models.RevokedToken{
		TokenID:   tok.ID,
		UserID:    tok.SubjectID,
		ExpiresAt: tok.ExpiresAt,
		RevokedAt: s.now().UTC(),
	})
	if err != nil {
		return s.internal(ctx, "token revoke failed", err)
	}

	s.logger.Info(ctx, "token revoked", "user_id", tok.SubjectID, "token_id", tok.ID)
	return nil
}

// PurgeRevocations drops revocation entries whose tokens have expired.
func (s *CredentialService) PurgeRevocations(ctx context.Context) (int64, error) {
	return s.revocations.PurgeExpired(ctx, s.now().UTC())
}

func (s *CredentialService) authenticate(ctx context.Context, bearer string) (*auth.Token, error) {
	tok, err := s.tokens.Verify(bearer)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, tok.ID)
	if err != nil {
		return nil, s.internal(ctx, "revocation lookup failed", err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return tok, nil
}

// rejected tells a failed verification apart from one that never ran
// because the caller's deadline passed while waiting for a hasher.
func (s *CredentialService) rejected(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return s.internal(ctx, "login aborted", err)
	}
	return common.ErrInvalidCredentials
}

func (s *CredentialService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return fmt.Errorf("%w: %w", common.ErrorInternal, err)
}

func public(u *models.User) *models.User {
	return &models.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, common.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, common.ErrWeakCredential):
		return metrics.OutcomeWeakCredential
	case errors.Is(err, common.ErrAlreadyExists):
		return metrics.OutcomeAlreadyExists
	case errors.Is(err, common.ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	default:
		return metrics.OutcomeError
	}
}
