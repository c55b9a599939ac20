package cache

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	"github.com/oksasatya/go-session-auth/internal/domain/repository"
	"github.com/oksasatya/go-session-auth/internal/infrastructure/sqlite"
)

// countingRepo counts session lookups that reach the store.
type countingRepo struct {
	repository.UserRepository
	sessionLookups int
}

func (c *countingRepo) GetBySessionID(ctx context.Context, sessionID string) (*entity.User, error) {
	c.sessionLookups++
	return c.UserRepository.GetBySessionID(ctx, sessionID)
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingRepo, *SessionCachedRepository) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, "file:"+filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingRepo{UserRepository: sqlite.NewUserRepository(db)}
	return mr, inner, NewSessionCachedRepository(inner, rdb, time.Minute, nil)
}

func strPtr(s string) *string { return &s }

func TestSessionCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	mr, inner, r := setup(t)

	u, err := r.Create(ctx, "bob@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, r.UpdateSessionID(ctx, u.ID, strPtr("sid-1")))

	got, err := r.GetBySessionID(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, inner.sessionLookups)

	cached, err := mr.Get(sessionKey("sid-1"))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(u.ID, 10), cached)
	assert.Equal(t, time.Minute, mr.TTL(sessionKey("sid-1")))

	got, err = r.GetBySessionID(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, inner.sessionLookups, "second lookup should be served by the cache")
}

func TestSessionCache_UpdateInvalidatesOldSession(t *testing.T) {
	ctx := context.Background()
	mr, _, r := setup(t)

	u, err := r.Create(ctx, "bob@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, r.UpdateSessionID(ctx, u.ID, strPtr("sid-1")))
	_, err = r.GetBySessionID(ctx, "sid-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(sessionKey("sid-1")))

	require.NoError(t, r.UpdateSessionID(ctx, u.ID, nil))
	assert.False(t, mr.Exists(sessionKey("sid-1")))

	_, err = r.GetBySessionID(ctx, "sid-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionCache_StaleEntryIsIgnored(t *testing.T) {
	ctx := context.Background()
	mr, inner, r := setup(t)

	bob, err := r.Create(ctx, "bob@example.com", "hash")
	require.NoError(t, err)
	alice, err := r.Create(ctx, "alice@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, r.UpdateSessionID(ctx, alice.ID, strPtr("sid-a")))

	// points at a user that does not hold the session
	require.NoError(t, mr.Set(sessionKey("sid-a"), strconv.FormatInt(bob.ID, 10)))

	got, err := r.GetBySessionID(ctx, "sid-a")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, 1, inner.sessionLookups)

	cached, err := mr.Get(sessionKey("sid-a"))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(alice.ID, 10), cached)
}

func TestSessionCache_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	mr, inner, r := setup(t)

	u, err := r.Create(ctx, "bob@example.com", "hash")
	require.NoError(t, err)
	mr.Close()

	require.NoError(t, r.UpdateSessionID(ctx, u.ID, strPtr("sid-1")))
	got, err := r.GetBySessionID(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 1, inner.sessionLookups)

	_, err = r.GetBySessionID(ctx, "unknown")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
