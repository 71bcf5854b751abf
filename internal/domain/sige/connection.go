package sige

import (
	"context"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
)

// ConnectionID is the primary key of the single SIGE connection row
const ConnectionID = 1

// Connection is the stored SIGE API session of the store account.
// Token fields hold sealed ciphertext, never plaintext.
type Connection struct {
	ID                 int        `gorm:"primaryKey"`
	Account            string     `gorm:"type:varchar(120);not null"`
	SealedAccessToken  string     `gorm:"column:access_token;type:text;not null"`
	SealedRefreshToken string     `gorm:"column:refresh_token;type:text;not null"`
	ExpiresAt          time.Time  `gorm:"not null"`
	ConnectedAt        time.Time  `gorm:"not null"`
	RefreshedAt        *time.Time `gorm:"column:refreshed_at"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Connection) TableName() string {
	return "sige_connections"
}

// Expired reports whether the access token is expired at now
func (c *Connection) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ExpiresWithin reports whether the access token expires within d of now
func (c *Connection) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !now.Add(d).Before(c.ExpiresAt)
}

// Token is a plaintext SIGE token pair as issued by the auth endpoint
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Account      string
}

// Status is the admin-facing view of the connection
type Status struct {
	Connected   bool       `json:"connected"`
	Account     string     `json:"account,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Expired     bool       `json:"expired"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// ConnectionRepository persists the SIGE connection
type ConnectionRepository interface {
	// Get returns the connection or shared.ErrNotFound
	Get(ctx context.Context) (*Connection, error)

	// Save creates or replaces the connection
	Save(ctx context.Context, conn *Connection) error

	// Delete removes the connection; deleting a missing row is not an error
	Delete(ctx context.Context) error
}

// ErrNotConnected is returned when an operation needs a SIGE session and none is stored
var ErrNotConnected = shared.ErrInvalidState.WithMessage("SIGE não conectado. Conecte a API em Configurações > API SIGE.")
