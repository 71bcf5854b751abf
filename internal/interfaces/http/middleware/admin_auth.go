package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/auth"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Admin auth context keys
const (
	AdminClaimsKey = "admin_claims"
	AdminIDKey     = "admin_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// TokenValidator parses admin access tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RevocationChecker reports tokens revoked by logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AdminAuth requires a valid admin bearer token. A missing token answers
// the fixed session-expired message before any handler runs.
func AdminAuth(tokens TokenValidator, revoked RevocationChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			abortAuth(c, dto.ErrCodeSessionExpired, shared.ErrSessionExpired.Message)
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortAuth(c, dto.ErrCodeTokenExpired, shared.ErrSessionExpired.Message)
				return
			}
			abortAuth(c, dto.ErrCodeTokenInvalid, "Token de acesso inválido")
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Error("Failed to check token revocation", zap.Error(err), zap.String("request_id", GetRequestID(c)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeInternal, "Erro interno do servidor", GetRequestID(c)))
				return
			}
			if isRevoked {
				abortAuth(c, dto.ErrCodeSessionExpired, shared.ErrSessionExpired.Message)
				return
			}
		}

		c.Set(AdminClaimsKey, claims)
		c.Set(AdminIDKey, claims.AdminID)
		c.Request = c.Request.WithContext(logger.WithAdminID(c.Request.Context(), claims.AdminID))
		c.Next()
	}
}

// GetAdminClaims returns the claims stored by AdminAuth
func GetAdminClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(AdminClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetAdminID returns the authenticated admin ID, or ""
func GetAdminID(c *gin.Context) string {
	return c.GetString(AdminIDKey)
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortAuth(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
