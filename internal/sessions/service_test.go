package sessions

import (
	"context"
	"testing"
	"time"
)

// memRepo keeps sessions in a map for service tests.
type memRepo struct {
	data map[string]*Session
}

func newMemRepo() *memRepo { return &memRepo{data: map[string]*Session{}} }

func (m *memRepo) Save(ctx context.Context, s *Session) error {
	cp := *s
	m.data[s.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.data[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) DeleteByID(ctx context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func TestService_BeginCreatesHandshake(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	s, err := svc.Begin(ctx, "github")
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if s.ID == "" || s.State == "" {
		t.Fatalf("expected id and state to be generated: %+v", s)
	}
	if s.Provider != "github" {
		t.Fatalf("unexpected provider: %s", s.Provider)
	}
	if s.LoggedIn() {
		t.Fatal("handshake session must not be logged in")
	}
	if !s.ExpiresAt.After(time.Now()) {
		t.Fatal("handshake session must have a future expiry")
	}

	// state values must differ between handshakes
	s2, err := svc.Begin(ctx, "github")
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if s2.State == s.State {
		t.Fatal("two handshakes must not share a state value")
	}
}

func TestService_GetFiltersExpired(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	expired := &Session{ID: "dead", Provider: "google", State: "x", ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	if err := repo.Save(ctx, expired); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := svc.Get(ctx, "dead")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatal("expected expired session to be treated as missing")
	}
	// and to be cleaned up from the store
	if _, ok := repo.data["dead"]; ok {
		t.Fatal("expected expired session to be deleted")
	}
}

func TestService_EstablishBindsUser(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	s, err := svc.Begin(ctx, "github")
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	handshakeExpiry := s.ExpiresAt

	if err := svc.Establish(ctx, s, "user-42"); err != nil {
		t.Fatalf("Establish error: %v", err)
	}

	got, err := svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || !got.LoggedIn() || got.UserID != "user-42" {
		t.Fatalf("expected logged-in session bound to user-42, got: %+v", got)
	}
	if got.State != "" {
		t.Fatal("state must be cleared once the handshake completes")
	}
	if !got.ExpiresAt.After(handshakeExpiry) {
		t.Fatal("expected logged-in lifetime to extend the handshake window")
	}

	if err := svc.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	got2, _ := svc.Get(ctx, s.ID)
	if got2 != nil {
		t.Fatal("expected session to be gone after delete")
	}
}
