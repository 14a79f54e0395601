package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fdsdashboard/internal/database"
	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/jwt"
	"fdsdashboard/internal/pkg/password"
	"fdsdashboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testLoginID  = "analyst01"
	testPassword = "Secret123"
	accessTTL    = 15 * time.Minute
	refreshTTL   = 14 * 24 * time.Hour
)

var testSecret = []byte(strings.Repeat("s", jwt.MinSecretBytes))

type testEnv struct {
	db      *gorm.DB
	users   *repository.UserRepository
	refresh *repository.RefreshTokenRepository
	tokens  *jwt.Service
	service *Service
	user    *domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return newTestEnvOn(t, db)
}

// newFileTestEnv runs against a SQLite file opened the way cmd/api does.
func newFileTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "fds.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return newTestEnvOn(t, db)
}

func newTestEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	encoder := password.NewBcrypt(bcrypt.MinCost)
	hash, err := encoder.Encode(testPassword)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	user := &domain.User{LoginID: testLoginID, PasswordHash: hash, Name: "Analyst", Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), user))

	tokens, err := jwt.New(testSecret, accessTTL)
	require.NoError(t, err)
	refresh := repository.NewRefreshTokenRepository(db, refreshTTL)

	return &testEnv{
		db:      db,
		users:   users,
		refresh: refresh,
		tokens:  tokens,
		service: NewService(users, encoder, tokens, refresh),
		user:    user,
	}
}

// storedToken loads the row for a raw refresh token, revoked or not.
func (e *testEnv) storedToken(t *testing.T, raw string) *domain.RefreshToken {
	t.Helper()
	var token domain.RefreshToken
	require.NoError(t, e.db.Where("token_hash = ?", repository.HashRefreshToken(raw)).First(&token).Error)
	return &token
}

func (e *testEnv) login(t *testing.T) *AuthResult {
	t.Helper()
	res, err := e.service.Login(context.Background(), LoginRequest{UserID: testLoginID, Password: testPassword}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	return res
}

func TestService_Login(t *testing.T) {
	env := newTestEnv(t)

	res := env.login(t)

	assert.Equal(t, TokenTypeBearer, res.Response.TokenType)
	assert.Equal(t, int64(900), res.Response.ExpiresIn)
	assert.Equal(t, env.user.ID, res.Response.UserID)
	assert.Equal(t, testLoginID, res.Response.LoginID)
	assert.Equal(t, "USER", res.Response.Role)
	assert.NotEmpty(t, res.RefreshToken)

	identity, err := env.tokens.ValidateToken(res.Response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, identity.UserID)
	assert.Equal(t, testLoginID, identity.LoginID)

	stored := env.storedToken(t, res.RefreshToken)
	assert.Equal(t, env.user.ID, stored.UserID)
}

func TestService_LoginRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  LoginRequest
		want error
	}{
		{"blank user", LoginRequest{UserID: " ", Password: testPassword}, ErrBadRequest},
		{"blank password", LoginRequest{UserID: testLoginID, Password: ""}, ErrBadRequest},
		{"unknown user", LoginRequest{UserID: "ghost", Password: testPassword}, ErrUnauthorized},
		{"wrong password", LoginRequest{UserID: testLoginID, Password: "Secret124"}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.service.Login(ctx, tt.req, "", "")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&domain.RefreshToken{}).Count(&count).Error)
	assert.Zero(t, count, "rejected logins must not issue refresh tokens")
}

type countingVerifier struct {
	password.Verifier

	mu      sync.Mutex
	matches []string
}

func (c *countingVerifier) Matches(raw, stored string) bool {
	c.mu.Lock()
	c.matches = append(c.matches, stored)
	c.mu.Unlock()
	return c.Verifier.Matches(raw, stored)
}

func TestService_LoginUnknownUserStillComparesHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	verifier := &countingVerifier{Verifier: password.NewBcrypt(bcrypt.MinCost)}
	svc := NewService(env.users, verifier, env.tokens, env.refresh)

	_, err := svc.Login(ctx, LoginRequest{UserID: "ghost", Password: testPassword}, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.Len(t, verifier.matches, 1)
	assert.Equal(t, verifier.DummyHash(), verifier.matches[0])

	cost, err := bcrypt.Cost([]byte(verifier.matches[0]))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = svc.Login(ctx, LoginRequest{UserID: testLoginID, Password: "Secret124"}, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Len(t, verifier.matches, 2)
}

func TestService_LoginFailsClosedOnNonBcryptHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.db.Model(&domain.User{}).Where("id = ?", env.user.ID).
		Update("password_hash", "$notbcrypt$garbage").Error)

	_, err := env.service.Login(ctx, LoginRequest{UserID: testLoginID, Password: "$notbcrypt$garbage"}, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_RefreshRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.login(t)

	second, err := env.service.Refresh(ctx, first.RefreshToken, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, env.user.ID, second.Response.UserID)

	old := env.storedToken(t, first.RefreshToken)
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, repository.HashRefreshToken(second.RefreshToken), *old.ReplacedBy)

	// The successor rotates too.
	third, err := env.service.Refresh(ctx, second.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestService_RefreshReplayIsRejectedForever(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.login(t)

	_, err := env.service.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = env.service.Refresh(ctx, first.RefreshToken, "", "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestService_RefreshRejectsBlankAndUnknown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, raw := range []string{"", "   ", "not-a-token"} {
		_, err := env.service.Refresh(ctx, raw, "", "")
		assert.ErrorIs(t, err, ErrUnauthorized, raw)
	}
}

func TestService_RefreshExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issuedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := env.service.WithClock(func() time.Time { return issuedAt })
	first, err := svc.Login(ctx, LoginRequest{UserID: testLoginID, Password: testPassword}, "", "")
	require.NoError(t, err)
	second, err := svc.Login(ctx, LoginRequest{UserID: testLoginID, Password: testPassword}, "", "")
	require.NoError(t, err)

	expiresAt := issuedAt.Add(refreshTTL)

	_, err = env.service.WithClock(func() time.Time { return expiresAt }).Refresh(ctx, first.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized, "expires_at == now is expired")

	_, err = env.service.WithClock(func() time.Time { return expiresAt.Add(-time.Second) }).Refresh(ctx, second.RefreshToken, "", "")
	assert.NoError(t, err, "one second before expiry is still valid")
}

func TestService_ConcurrentRefreshHasOneWinner(t *testing.T) {
	assertSingleRefreshWinner(t, newTestEnv(t))
}

func TestService_ConcurrentRefreshOnFileDatabase(t *testing.T) {
	assertSingleRefreshWinner(t, newFileTestEnv(t))
}

func assertSingleRefreshWinner(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	first := env.login(t)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.service.Refresh(ctx, first.RefreshToken, "", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrUnauthorized):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, rejected)

	var active int64
	require.NoError(t, env.db.Model(&domain.RefreshToken{}).Where("revoked_at IS NULL").Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestService_RefreshPicksUpRoleChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.login(t)
	assert.Equal(t, "USER", first.Response.Role)

	require.NoError(t, env.users.UpdateRole(ctx, env.user.ID, domain.RoleAdmin))

	second, err := env.service.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", second.Response.Role)

	identity, err := env.tokens.ValidateToken(second.Response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
}

func TestService_RefreshForDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.login(t)

	require.NoError(t, env.db.Delete(&domain.User{}, env.user.ID).Error)

	_, err := env.service.Refresh(ctx, first.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_LogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.login(t)

	assert.NoError(t, env.service.Logout(ctx, res.RefreshToken))
	assert.NoError(t, env.service.Logout(ctx, res.RefreshToken))
	assert.NoError(t, env.service.Logout(ctx, "never-issued"))
	assert.NoError(t, env.service.Logout(ctx, ""))

	_, err := env.service.Refresh(ctx, res.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored := env.storedToken(t, res.RefreshToken)
	assert.Nil(t, stored.ReplacedBy)
	assert.NotNil(t, stored.RevokedAt)
}

type mockRefreshStore struct {
	mock.Mock
}

func (m *mockRefreshStore) Issue(ctx context.Context, userID int64, userAgent, ip string, now time.Time) (repository.IssuedRefreshToken, error) {
	args := m.Called(ctx, userID, userAgent, ip, now)
	return args.Get(0).(repository.IssuedRefreshToken), args.Error(1)
}

func (m *mockRefreshStore) WithTx(ctx context.Context, fn func(tx repository.RefreshTokenTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *mockRefreshStore) Revoke(ctx context.Context, raw string, now time.Time) error {
	return m.Called(ctx, raw, now).Error(0)
}

func (m *mockRefreshStore) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestService_StorageFailuresAreNotAuthFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dbDown := errors.New("connection refused")

	store := new(mockRefreshStore)
	store.On("WithTx", mock.Anything, mock.Anything).Return(dbDown)
	store.On("Revoke", mock.Anything, "some-token", mock.Anything).Return(dbDown)
	store.On("Issue", mock.Anything, env.user.ID, mock.Anything, mock.Anything, mock.Anything).
		Return(repository.IssuedRefreshToken{}, dbDown)

	svc := NewService(env.users, password.NewBcrypt(bcrypt.MinCost), env.tokens, store)

	_, err := svc.Refresh(ctx, "some-token", "", "")
	assert.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	err = svc.Logout(ctx, "some-token")
	assert.ErrorIs(t, err, dbDown)

	_, err = svc.Login(ctx, LoginRequest{UserID: testLoginID, Password: testPassword}, "", "")
	assert.ErrorIs(t, err, dbDown)

	store.AssertExpectations(t)
}

func TestService_LogoutBlankSkipsStore(t *testing.T) {
	store := new(mockRefreshStore)
	svc := NewService(nil, nil, nil, store)

	assert.NoError(t, svc.Logout(context.Background(), "  "))
	store.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
}
