package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Register creates a customer account and signs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, identity.ErrEmailTaken
	}

	user, err := identity.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	user.RecordLogin()

	if err := s.users.Save(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.signIn(user)
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		// Don't fail the login over a bookkeeping write
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.signIn(user)
}

func (s *AuthService) signIn(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &AuthResult{TokenResult: toTokenResult(pair), User: toUserInfo(user)}, nil
}

// Refresh rotates a refresh token. The consumed token is revoked so it
// cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := auth.CheckRevoked(ctx, s.blacklist, claims); err != nil {
		return nil, mapTokenError(err)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, mapTokenError(auth.ErrInvalidClaims)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}

	pair, consumed, err := s.jwtService.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	if err := auth.Revoke(ctx, s.blacklist, consumed); err != nil {
		s.logger.Error("Failed to revoke consumed refresh token", zap.Error(err))
		return nil, err
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the presented access token and, if supplied, its refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessClaims == nil {
		return shared.ErrUnauthorized
	}
	if err := auth.Revoke(ctx, s.blacklist, input.AccessClaims); err != nil {
		return err
	}

	if input.RefreshToken != "" {
		refresh, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		switch {
		case err != nil:
			s.logger.Debug("Ignoring unusable refresh token on logout", zap.Error(err))
		case refresh.UserID != input.AccessClaims.UserID:
			return shared.NewDomainError("TOKEN_INVALID", "Refresh token belongs to another user")
		default:
			if err := auth.Revoke(ctx, s.blacklist, refresh); err != nil {
				return err
			}
		}
	}

	s.logger.Info("User logged out", zap.String("user_id", input.AccessClaims.UserID))
	return nil
}

// LogoutEverywhere revokes every token issued to the user so far
func (s *AuthService) LogoutEverywhere(ctx context.Context, userID uuid.UUID) error {
	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), ttl); err != nil {
		return err
	}
	s.logger.Info("All sessions revoked", zap.String("user_id", userID.String()))
	return nil
}

// CurrentUser returns the account behind an authenticated request
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
