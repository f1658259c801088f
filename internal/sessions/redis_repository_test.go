package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_SaveGetDelete(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepository(client, "test:session:")

	ctx := context.Background()
	s := &Session{
		ID:        "sid-1",
		Provider:  "github",
		State:     "state-1",
		ExpiresAt: time.Now().UTC().Add(5 * time.Second),
	}

	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.GetByID(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, s.Provider, got.Provider)
	require.Equal(t, s.State, got.State)
	require.False(t, got.LoggedIn())

	require.NoError(t, repo.DeleteByID(ctx, "sid-1"))
	got2, err := repo.GetByID(ctx, "sid-1")
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepository(client, "test:session:")

	ctx := context.Background()
	s := &Session{
		ID:        "sid-2",
		Provider:  "google",
		State:     "state-2",
		ExpiresAt: time.Now().UTC().Add(1 * time.Second),
	}

	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.GetByID(ctx, "sid-2")
	require.NoError(t, err)
	require.NotNil(t, got)

	// advance miniredis clock past TTL
	m.FastForward(2 * time.Second)

	got2, err := repo.GetByID(ctx, "sid-2")
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestRedisRepository_SaveRebindsUser(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := NewRedisRepository(client, "")

	ctx := context.Background()
	s := &Session{ID: "sid-3", Provider: "github", State: "s", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, repo.Save(ctx, s))

	s.UserID = "user-77"
	s.State = ""
	s.ExpiresAt = time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.GetByID(ctx, "sid-3")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.LoggedIn())
	require.Equal(t, "user-77", got.UserID)
	require.Empty(t, got.State)
}
