package application

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-session-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-session-auth/internal/domain/repository"
	"github.com/oksasatya/go-session-auth/internal/infrastructure/sqlite"
	"github.com/oksasatya/go-session-auth/pkg/helpers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	db, err := sqlite.Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "users.db")+"?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return NewAuthService(sqlite.NewUserRepository(db), helpers.NewBcryptHasher(bcrypt.MinCost), helpers.UUIDTokens{}, nil)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	u, err := s.RegisterUser(ctx, "bob@example.com", "MyPwdOfBob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.NotEqual(t, "MyPwdOfBob", u.HashedPassword)
	assert.Nil(t, u.SessionID)
	assert.Nil(t, u.ResetToken)

	_, err = s.RegisterUser(ctx, "bob@example.com", "another")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	stored, err := s.Repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.HashedPassword, stored.HashedPassword, "first user's hash must be unaffected")

	ok, err := s.ValidLogin(ctx, "bob@example.com", "MyPwdOfBob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterUser_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.RegisterUser(ctx, "race@example.com", "pw")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestHasher_SaltedHashes(t *testing.T) {
	h := helpers.NewBcryptHasher(bcrypt.MinCost)
	first, err := h.Hash("hello")
	require.NoError(t, err)
	second, err := h.Hash("hello")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, hash := range []string{first, second} {
		ok, err := h.Verify("hello", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := h.Verify("Hello", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "MyPwdOfBob")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{name: "correct password", email: "bob@example.com", password: "MyPwdOfBob", want: true},
		{name: "wrong password", email: "bob@example.com", password: "nope", want: false},
		{name: "empty password", email: "bob@example.com", password: "", want: false},
		{name: "unknown email", email: "unknown@example.com", password: "MyPwdOfBob", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.ValidLogin(ctx, tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	u, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	sid, ok, err := s.CreateSession(ctx, "bob@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, sid)

	got, err := s.GetUserFromSessionID(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.DestroySession(ctx, u.ID))
	got, err = s.GetUserFromSessionID(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, got)

	// destroying twice is harmless
	require.NoError(t, s.DestroySession(ctx, u.ID))
}

func TestCreateSession_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	first, ok, err := s.CreateSession(ctx, "bob@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := s.CreateSession(ctx, "bob@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first, second)

	got, err := s.GetUserFromSessionID(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.GetUserFromSessionID(ctx, second)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCreateSession_UnknownEmail(t *testing.T) {
	s := newTestService(t)
	sid, ok, err := s.CreateSession(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sid)
}

func TestGetUserFromSessionID_Absent(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	for _, sid := range []string{"", "not-a-session"} {
		got, err := s.GetUserFromSessionID(ctx, sid)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestDestroySession_UnknownUser(t *testing.T) {
	s := newTestService(t)
	assert.NoError(t, s.DestroySession(context.Background(), 4242))
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "old-pw")
	require.NoError(t, err)
	sid, _, err := s.CreateSession(ctx, "bob@example.com")
	require.NoError(t, err)

	token, err := s.GetResetPasswordToken(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, s.UpdatePassword(ctx, token, "new-pw"))
	assert.ErrorIs(t, s.UpdatePassword(ctx, token, "anything"), ErrInvalidResetToken)

	ok, err := s.ValidLogin(ctx, "bob@example.com", "new-pw")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ValidLogin(ctx, "bob@example.com", "old-pw")
	require.NoError(t, err)
	assert.False(t, ok)

	// the reset touches the password only
	got, err := s.GetUserFromSessionID(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ResetToken)
}

func TestPasswordReset_NewTokenSupersedesOld(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	first, err := s.GetResetPasswordToken(ctx, "bob@example.com")
	require.NoError(t, err)
	second, err := s.GetResetPasswordToken(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, s.UpdatePassword(ctx, first, "x"), ErrInvalidResetToken)
	assert.NoError(t, s.UpdatePassword(ctx, second, "x"))
}

func TestPasswordReset_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	token, err := s.GetResetPasswordToken(ctx, "bob@example.com")
	require.NoError(t, err)

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.UpdatePassword(ctx, token, "pw-new")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	}
	assert.Equal(t, 1, succeeded)
}

func TestGetResetPasswordToken_UnknownEmail(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetResetPasswordToken(context.Background(), "no-such-email")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword_InvalidTokens(t *testing.T) {
	s := newTestService(t)
	for _, tok := range []string{"", "made-up"} {
		assert.ErrorIs(t, s.UpdatePassword(context.Background(), tok, "pw"), ErrInvalidResetToken)
	}
}

// failingRepo lets individual store calls fail with a non-absence error.
type failingRepo struct {
	repo.UserRepository
	err error
}

func (f failingRepo) GetByEmail(context.Context, string) (*entity.User, error) { return nil, f.err }
func (f failingRepo) GetBySessionID(context.Context, string) (*entity.User, error) {
	return nil, f.err
}
func (f failingRepo) UpdateSessionID(context.Context, int64, *string) error { return f.err }

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")
	s := NewAuthService(failingRepo{err: boom}, helpers.NewBcryptHasher(bcrypt.MinCost), helpers.UUIDTokens{}, nil)

	_, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	assert.ErrorIs(t, err, boom)
	_, err = s.ValidLogin(ctx, "bob@example.com", "pw")
	assert.ErrorIs(t, err, boom)
	_, _, err = s.CreateSession(ctx, "bob@example.com")
	assert.ErrorIs(t, err, boom)
	_, err = s.GetUserFromSessionID(ctx, "sid")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.DestroySession(ctx, 1), boom)
	_, err = s.GetResetPasswordToken(ctx, "bob@example.com")
	assert.ErrorIs(t, err, boom)
}

type brokenTokens struct{}

func (brokenTokens) NewToken() (string, error) { return "", errors.New("entropy unavailable") }

func TestTokenFailureLeavesUserUntouched(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.RegisterUser(ctx, "bob@example.com", "pw")
	require.NoError(t, err)

	s.Tokens = brokenTokens{}
	_, _, err = s.CreateSession(ctx, "bob@example.com")
	require.Error(t, err)
	_, err = s.GetResetPasswordToken(ctx, "bob@example.com")
	require.Error(t, err)

	u, err := s.Repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, u.HasSession())
	assert.False(t, u.HasPendingReset())
}
