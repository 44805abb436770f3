package auth

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/sessions"
	"github.com/campus-records/records/internal/shared"
)

// Minter creates sessions for verified principals.
type Minter interface {
	Mint(ctx context.Context, username string, role principals.Role) (sessions.Session, error)
}

// Service wraps salt issuance and credential verification.
type Service struct {
	principals principals.Store
	minter     Minter
	repo       Repository
	validate   *validator.Validate
	// decoy is compared against when the username is unknown so both
	// failure paths do the same work.
	decoy string
}

// NewService constructs a new Service. repo may be nil when session
// auditing is not configured.
func NewService(store principals.Store, minter Minter, repo Repository) *Service {
	if repo == nil {
		repo = nopRepository{}
	}
	return &Service{
		principals: store,
		minter:     minter,
		repo:       repo,
		validate:   validator.New(),
		decoy:      principals.Digest("decoy-salt", "decoy-password"),
	}
}

// Salt returns the stored salt for username. Repeated calls return the same
// value.
func (s *Service) Salt(ctx context.Context, username string) (string, error) {
	p, err := s.principals.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrUnknownPrincipal
		}
		return "", fmt.Errorf("auth: salt: %w", err)
	}
	return p.Salt, nil
}

// Verify checks the submitted digest and mints exactly one session on
// success. Unknown users and wrong digests both yield
// shared.ErrAuthenticationFailed.
func (s *Service) Verify(ctx context.Context, username, digest string) (sessions.Session, error) {
	if err := s.validate.Struct(credentials{Username: username, Digest: digest}); err != nil {
		return sessions.Session{}, shared.ErrAuthenticationFailed
	}
	p, err := s.principals.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return sessions.Session{}, fmt.Errorf("auth: verify: %w", err)
	}
	expected := s.decoy
	if p != nil {
		expected = p.Verifier
	}
	match := digestsEqual(expected, digest)
	if p == nil || !match {
		return sessions.Session{}, shared.ErrAuthenticationFailed
	}
	sess, err := s.minter.Mint(ctx, p.Username, p.Role)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("auth: verify: %w", err)
	}
	return sess, nil
}

// RegisterSession records the session metadata for auditing.
func (s *Service) RegisterSession(ctx context.Context, sess sessions.Session, ip, ua string) error {
	return s.repo.CreateSession(ctx, sess, ip, ua)
}

// RemoveSession deletes the audit record of a revoked session.
func (s *Service) RemoveSession(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

func digestsEqual(expected, submitted string) bool {
	want, err := hex.DecodeString(expected)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(submitted)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
