package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	JWTRoleKey    = "jwt_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator verifies an access token and returns its claims
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	Validator TokenValidator
	// Blacklist is optional; without it revoked tokens stay valid until expiry
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
}

// JWTAuth requires a valid bearer access token on every request it guards
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		token, found := strings.CutPrefix(header, BearerPrefix)
		if !found || token == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(token)
		if err != nil {
			log.Debug("JWT validation failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, message := authErrorCode(err)
			abortWithError(c, code, message)
			return
		}

		if cfg.Blacklist != nil {
			err := auth.CheckRevoked(c.Request.Context(), cfg.Blacklist, claims)
			switch {
			case errors.Is(err, auth.ErrTokenBlacklisted):
				abortWithError(c, dto.ErrCodeTokenRevoked, "Token has been revoked")
				return
			case err != nil:
				// fail open: a blacklist outage must not lock every shopper out
				log.Error("Failed to check token blacklist",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTRoleKey, claims.Role)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return dto.ErrCodeTokenInvalid, "Invalid token type"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			abortWithError(c, dto.ErrCodeForbidden, "Administrator access required")
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the claims stored by JWTAuth
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user's ID
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(JWTUserIDKey))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsAdmin reports whether the authenticated user holds the admin role
func IsAdmin(c *gin.Context) bool {
	return c.GetString(JWTRoleKey) == auth.RoleAdmin
}
