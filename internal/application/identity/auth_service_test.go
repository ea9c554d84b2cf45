package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type authFixture struct {
	repo      *MockUserRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	service   *AuthService
}

func newAuthFixture() *authFixture {
	repo := new(MockUserRepository)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "storefront-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	return &authFixture{
		repo:      repo,
		jwt:       jwtService,
		blacklist: blacklist,
		service:   NewAuthService(repo, jwtService, blacklist, zap.NewNop()),
	}
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Asha", "asha@example.com", "correct-horse")
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("ExistsByEmail", ctx, "asha@example.com").Return(false, nil)
	f.repo.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	result, err := f.service.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.Equal(t, "customer", result.User.Role)
	assert.NotEmpty(t, result.AccessToken)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.UserID)
	f.repo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("ExistsByEmail", ctx, "asha@example.com").Return(true, nil)

	_, err := f.service.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_RaceOnSave(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	f.repo.On("ExistsByEmail", ctx, "asha@example.com").Return(false, nil)
	f.repo.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

	_, err := f.service.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := newTestUser(t)
	user.PromoteToAdmin()

	f.repo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	f.repo.On("Save", ctx, user).Return(nil)

	result, err := f.service.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	assert.NotNil(t, result.User.LastLoginAt)
	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := newTestUser(t)

	f.repo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	f.repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, shared.ErrNotFound)

	_, err := f.service.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_RotatesAndRevokes(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := newTestUser(t)

	pair, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: user.ID, Email: user.Email, Role: string(user.Role)})
	require.NoError(t, err)
	f.repo.On("FindByID", ctx, user.ID).Return(user, nil)

	refreshed, err := f.service.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	_, err = f.service.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "TOKEN_REVOKED", shared.CodeOf(err))
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	f := newAuthFixture()

	_, err := f.service.Refresh(context.Background(), RefreshRequest{RefreshToken: "garbage"})
	require.Error(t, err)
	assert.Equal(t, "TOKEN_INVALID", shared.CodeOf(err))
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	userID := uuid.New()

	pair, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: userID, Role: "customer"})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := f.jwt.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, LogoutInput{AccessClaims: access, RefreshToken: pair.RefreshToken}))

	assert.ErrorIs(t, auth.CheckRevoked(ctx, f.blacklist, access), auth.ErrTokenBlacklisted)
	assert.ErrorIs(t, auth.CheckRevoked(ctx, f.blacklist, refresh), auth.ErrTokenBlacklisted)
}

func TestAuthService_Logout_ForeignRefreshToken(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	mine, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: uuid.New()})
	require.NoError(t, err)
	theirs, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: uuid.New()})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(mine.AccessToken)
	require.NoError(t, err)

	err = f.service.Logout(ctx, LogoutInput{AccessClaims: access, RefreshToken: theirs.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "TOKEN_INVALID", shared.CodeOf(err))
}

func TestAuthService_LogoutEverywhere(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	userID := uuid.New()

	pair, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: userID})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.LogoutEverywhere(ctx, userID))
	assert.ErrorIs(t, auth.CheckRevoked(ctx, f.blacklist, access), auth.ErrTokenBlacklisted)
}
