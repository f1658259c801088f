package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// TTLs for the two session phases: the handshake window between redirect and
// callback, and the logged-in session established after reconciliation.
const (
	handshakeTTL = 10 * time.Minute
	loggedInTTL  = 24 * time.Hour
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Begin creates a handshake session for a provider redirect and returns it.
// The State value must be round-tripped through the provider and checked on
// callback.
func (s *Service) Begin(ctx context.Context, provider string) (*Session, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        uuid.NewString(),
		Provider:  provider,
		State:     hex.EncodeToString(b),
		ExpiresAt: time.Now().UTC().Add(handshakeTTL),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the session if present and not expired.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = s.repo.DeleteByID(ctx, id)
		return nil, nil
	}
	return sess, nil
}

// Establish binds the session to a user after a successful provider callback
// and extends it to the logged-in lifetime.
func (s *Service) Establish(ctx context.Context, sess *Session, userID string) error {
	sess.UserID = userID
	sess.State = ""
	sess.ExpiresAt = time.Now().UTC().Add(loggedInTTL)
	return s.repo.Save(ctx, sess)
}

// Delete removes a session (logout or abandoned handshake).
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}
