package auth

import (
	"errors"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type issued to admins
const TokenTypeAccess = "access"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingAdminID   = errors.New("missing admin_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the admin access token claims
type Claims struct {
	jwt.RegisteredClaims
	AdminID   string `json:"admin_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
}

// AdminUUID parses the admin ID claim
func (c *Claims) AdminUUID() (uuid.UUID, error) {
	return uuid.Parse(c.AdminID)
}

// ExpiresAtTime returns the expiration as time.Time
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// RemainingTTL returns the time left until the token expires, never negative
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IssuedToken is a signed access token and its expiry
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
	ID          string
}

// Subject identifies the admin a token is issued to
type Subject struct {
	AdminID uuid.UUID
	Email   string
	Name    string
}

// JWTService issues and validates admin access tokens (HS256)
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = 8 * time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: expiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

// Issue signs a new access token for the subject
func (s *JWTService) Issue(sub Subject) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)
	jti := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   sub.AdminID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		AdminID:   sub.AdminID.String(),
		Email:     sub.Email,
		Name:      sub.Name,
		TokenType: TokenTypeAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{AccessToken: signed, ExpiresAt: expiresAt, ID: jti}, nil
}

// Validate parses an access token and returns its claims
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.AdminID == "" {
		return nil, ErrMissingAdminID
	}
	return claims, nil
}

// Expiration returns the access token lifetime
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}
