package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	ErrGatewayNotConfigured   = errors.New("mercadopago: credentials not configured")
	ErrGatewayRequestFailed   = errors.New("mercadopago: request failed")
	ErrGatewayUnauthorized    = errors.New("mercadopago: access token rejected")
	ErrGatewayInvalidResponse = errors.New("mercadopago: invalid response")
	ErrGatewayInvalidCallback = errors.New("mercadopago: invalid webhook signature")
)

// Environment is the Mercado Pago account mode the credentials belong to
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// IsValid returns true if the environment is known
func (e Environment) IsValid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

// TokenPrefix is the access token prefix Mercado Pago issues for the environment
func (e Environment) TokenPrefix() string {
	if e == EnvironmentProduction {
		return "APP_USR-"
	}
	return "TEST-"
}

// CredentialsID is the primary key of the single credentials row
const CredentialsID = 1

// Credentials are the store's Mercado Pago keys. Secret fields are sealed.
type Credentials struct {
	ID                  int         `gorm:"primaryKey"`
	PublicKey           string      `gorm:"type:varchar(120);not null"`
	SealedAccessToken   string      `gorm:"column:access_token;type:text;not null"`
	SealedWebhookSecret string      `gorm:"column:webhook_secret;type:text"`
	Environment         Environment `gorm:"type:varchar(20);not null"`
	LastTestedAt        *time.Time  `gorm:"column:last_tested_at"`
	LastTestOK          *bool       `gorm:"column:last_test_ok"`
	CreatedAt           time.Time   `gorm:"not null"`
	UpdatedAt           time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Credentials) TableName() string {
	return "mercadopago_credentials"
}

// RecordTest stores the outcome of a connectivity test
func (c *Credentials) RecordTest(ok bool, at time.Time) {
	c.LastTestedAt = &at
	c.LastTestOK = &ok
	c.UpdatedAt = at
}

// ValidateCredentialInput performs the presence and format checks done before saving
func ValidateCredentialInput(publicKey, accessToken string, env Environment) error {
	if strings.TrimSpace(publicKey) == "" {
		return shared.ErrInvalidInput.WithMessage("Public Key é obrigatória")
	}
	if strings.TrimSpace(accessToken) == "" {
		return shared.ErrInvalidInput.WithMessage("Access Token é obrigatório")
	}
	if !env.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Ambiente deve ser sandbox ou production")
	}
	if !strings.HasPrefix(accessToken, env.TokenPrefix()) {
		return shared.ErrInvalidInput.WithMessage("Access Token não corresponde ao ambiente " + string(env) + " (esperado prefixo " + env.TokenPrefix() + ")")
	}
	if !strings.HasPrefix(publicKey, env.TokenPrefix()) {
		return shared.ErrInvalidInput.WithMessage("Public Key não corresponde ao ambiente " + string(env))
	}
	return nil
}

// CredentialRepository persists the Mercado Pago credentials
type CredentialRepository interface {
	// Get returns the credentials or shared.ErrNotFound
	Get(ctx context.Context) (*Credentials, error)

	// Save creates or replaces the credentials
	Save(ctx context.Context, creds *Credentials) error

	// Delete removes the credentials; deleting a missing row is not an error
	Delete(ctx context.Context) error
}

// Account is the Mercado Pago user owning an access token
type Account struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	SiteID   string `json:"site_id"`
}

// PaymentStatus is the status of a Mercado Pago payment
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusApproved    PaymentStatus = "approved"
	PaymentStatusAuthorized  PaymentStatus = "authorized"
	PaymentStatusInProcess   PaymentStatus = "in_process"
	PaymentStatusInMediation PaymentStatus = "in_mediation"
	PaymentStatusRejected    PaymentStatus = "rejected"
	PaymentStatusCancelled   PaymentStatus = "cancelled"
	PaymentStatusRefunded    PaymentStatus = "refunded"
	PaymentStatusChargedBack PaymentStatus = "charged_back"
)

// IsFinal returns true if the payment will not change status anymore
func (s PaymentStatus) IsFinal() bool {
	switch s {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusChargedBack:
		return true
	}
	return false
}

// Payment is a Mercado Pago payment as returned by /v1/payments/{id}
type Payment struct {
	ID                int64           `json:"id"`
	Status            PaymentStatus   `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	PaymentMethodID   string          `json:"payment_method_id"`
	DateApproved      *time.Time      `json:"date_approved,omitempty"`
}

// PreferenceItem is one checkout line
type PreferenceItem struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	CurrencyID  string          `json:"currency_id,omitempty"`
	PictureURL  string          `json:"picture_url,omitempty"`
	Description string          `json:"description,omitempty"`
}

// PreferenceRequest creates a Checkout Pro preference
type PreferenceRequest struct {
	Items             []PreferenceItem  `json:"items" binding:"required,min=1,dive"`
	ExternalReference string            `json:"external_reference,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
}

// Total returns the sum of item amounts
func (r PreferenceRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Preference is a created checkout preference
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Gateway is the Mercado Pago REST API, called with the store's access token
type Gateway interface {
	Me(ctx context.Context, accessToken string) (*Account, error)
	PaymentMethods(ctx context.Context, accessToken string) (json.RawMessage, error)
	CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, accessToken, paymentID string) (*Payment, error)
	SearchPayments(ctx context.Context, accessToken string, params url.Values) (json.RawMessage, error)
}
