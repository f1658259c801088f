package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aswaq/aswaq-backend/internal/models"
	"github.com/aswaq/aswaq-backend/internal/password"
	"github.com/aswaq/aswaq-backend/pkg/logger"
)

// How long verification and reset tokens stay valid.
const tokenValidity = time.Hour

// Failure kinds returned by the service. Authenticate never distinguishes an
// unknown email from a wrong password.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("already verified")
	ErrEmailNotFound      = errors.New("email not found")
	ErrTokenInvalid       = errors.New("token invalid or expired")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrEmailRequired      = errors.New("provider supplied no email")
)

// Clock allows tests to simulate expiry without sleeping.
type Clock func() time.Time

// Service encapsulates user-related business logic
type Service struct {
	repo Repository
	now  Clock
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// WithClock replaces the service clock (tests only).
func (s *Service) WithClock(c Clock) *Service {
	s.now = c
	return s
}

// newToken returns an opaque random token for email verification and
// password reset links.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Signup creates an unverified local-credential user and returns it together
// with the pending verification token. Duplicate email/username surfaces as
// ErrEmailTaken/ErrUsernameTaken from the repository, including when two
// concurrent signups race on the unique indexes.
func (s *Service) Signup(ctx context.Context, username, email, plain string) (*models.User, string, error) {
	// pre-check gives the common case a friendly answer; the unique index
	// remains the authority under concurrency
	if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	vt, err := newToken()
	if err != nil {
		return nil, "", err
	}
	u := &models.User{
		Username:                username,
		Email:                   email,
		PasswordHash:            hash,
		Role:                    models.RoleUser,
		VerificationToken:       vt,
		VerificationTokenExpiry: s.now().UTC().Add(tokenValidity),
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return created, vt, nil
}

// Authenticate checks email+password and updates lastLogin on success. The
// unknown-email and wrong-password paths return the identical error so the
// response cannot be used for account enumeration.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*models.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	}
	if u == nil || u.PasswordHash == "" || !password.Compare(plain, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		// analytics only; login still succeeds
		logger.Warnf("failed to update lastLogin for %s: %v", u.ID.Hex(), err)
	}
	return u, nil
}

// FindByID resolves the full user record for request context. Any lookup
// error is contained here and reported as not-found so middleware error
// handling stays uniform regardless of store failures.
func (s *Service) FindByID(ctx context.Context, id string) *models.User {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		logger.Errorf("error finding user by id %s: %v", id, err)
		return nil
	}
	return u
}

// VerifyEmail consumes a pending verification token. The token is single-use:
// MarkVerified clears it, so a second call fails with ErrTokenInvalid.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.repo.FindByVerificationToken(ctx, token, s.now().UTC())
	if err != nil {
		return fmt.Errorf("find by verification token: %w", err)
	}
	if u == nil {
		return ErrTokenInvalid
	}
	return s.repo.MarkVerified(ctx, u.ID)
}

// ResendVerification issues a fresh verification token, superseding any prior
// one, and returns it for mail dispatch.
func (s *Service) ResendVerification(ctx context.Context, email string) (string, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find by email: %w", err)
	}
	if u == nil {
		return "", ErrEmailNotFound
	}
	if u.IsVerified {
		return "", ErrAlreadyVerified
	}
	vt, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetVerificationToken(ctx, u.ID, vt, s.now().UTC().Add(tokenValidity)); err != nil {
		return "", err
	}
	return vt, nil
}

// RequestReset issues a password-reset token and returns it for mail dispatch.
func (s *Service) RequestReset(ctx context.Context, email string) (string, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("find by email: %w", err)
	}
	if u == nil {
		return "", ErrEmailNotFound
	}
	rt, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetResetToken(ctx, u.ID, rt, s.now().UTC().Add(tokenValidity)); err != nil {
		return "", err
	}
	return rt, nil
}

// CheckResetToken reports whether a reset token is valid and unexpired
// without mutating anything.
func (s *Service) CheckResetToken(ctx context.Context, token string) error {
	u, err := s.repo.FindByResetToken(ctx, token, s.now().UTC())
	if err != nil {
		return fmt.Errorf("find by reset token: %w", err)
	}
	if u == nil {
		return ErrTokenInvalid
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password hash.
// Clearing the token makes it single-use.
func (s *Service) ResetPassword(ctx context.Context, token, plain string) error {
	u, err := s.repo.FindByResetToken(ctx, token, s.now().UTC())
	if err != nil {
		return fmt.Errorf("find by reset token: %w", err)
	}
	if u == nil {
		return ErrTokenInvalid
	}
	hash, err := password.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.ResetPassword(ctx, u.ID, hash)
}

// providerField maps a provider name to the user document field that stores
// its external id.
func providerField(provider string) (string, error) {
	switch provider {
	case "google":
		return "googleId", nil
	case "github":
		return "githubId", nil
	}
	return "", ErrUnknownProvider
}

// ReconcileExternal matches a provider-asserted identity to a local user,
// linking by email when the provider id is new, or creating a fresh verified
// account when neither matches. OAuth-created accounts have no password hash.
func (s *Service) ReconcileExternal(ctx context.Context, provider, providerID, email, name string) (*models.User, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}
	if u, err := s.repo.FindByProviderID(ctx, field, providerID); err != nil {
		return nil, fmt.Errorf("find by provider id: %w", err)
	} else if u != nil {
		if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
			logger.Warnf("failed to update lastLogin for %s: %v", u.ID.Hex(), err)
		}
		return u, nil
	}
	// every account needs a unique email; an identity the provider cannot
	// attach an address to has nowhere to land in the store
	if email == "" {
		return nil, ErrEmailRequired
	}
	if u, err := s.repo.FindByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("find by email: %w", err)
	} else if u != nil {
		if err := s.repo.LinkProvider(ctx, u.ID, field, providerID); err != nil {
			return nil, fmt.Errorf("link provider: %w", err)
		}
		return u, nil
	}

	username := usernameFrom(email, name, providerID)
	u := &models.User{
		Username:   username,
		Email:      email,
		Role:       models.RoleUser,
		IsVerified: true, // the provider asserted the email
	}
	switch provider {
	case "google":
		u.GoogleID = providerID
	case "github":
		u.GithubID = providerID
	}
	created, err := s.repo.Create(ctx, u)
	if err == ErrUsernameTaken {
		// retry once with a suffixed username
		u.Username = fmt.Sprintf("%s-%s", username, providerID[:min(6, len(providerID))])
		created, err = s.repo.Create(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func usernameFrom(email, name, providerID string) string {
	if email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
	}
	if name != "" {
		return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	}
	return "user-" + providerID[:min(8, len(providerID))]
}
