package identity

import (
	"time"

	"github.com/autopecas/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the admin login credentials
type LoginInput struct {
	Email    string
	Password string
}

// AdminInfo is the public view of an admin user
type AdminInfo struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       AdminInfo `json:"admin"`
}

// BootstrapInput describes the first admin created on an empty database
type BootstrapInput struct {
	Email    string
	Password string
	Name     string
}

func toAdminInfo(u *identity.AdminUser) AdminInfo {
	return AdminInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
	}
}
