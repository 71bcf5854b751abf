package identity

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// MinPasswordLength is the shortest accepted admin password
const MinPasswordLength = 8

// AdminUser is a back-office operator
type AdminUser struct {
	shared.BaseEntity
	Email        string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name         string     `gorm:"type:varchar(120);not null"`
	PasswordHash string     `gorm:"type:varchar(120);not null"`
	Active       bool       `gorm:"not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

// TableName returns the table name for GORM
func (AdminUser) TableName() string {
	return "admin_users"
}

// NewAdminUser creates an active admin
func NewAdminUser(email, name, password string) (*AdminUser, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.ErrInvalidInput.WithMessage("E-mail inválido")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	u := &AdminUser{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Name:       name,
		Active:     true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword hashes and stores a new password
func (u *AdminUser) SetPassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.ErrInvalidInput.WithMessage("A senha deve ter pelo menos 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *AdminUser) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RecordLogin stores the login time
func (u *AdminUser) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.UpdatedAt = at
}

// NormalizeEmail lowercases and trims an e-mail address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminUserRepository persists admin users
type AdminUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, u *AdminUser) error
}
