package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/autopecas/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Sealer encrypts secrets at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// SaveCredentialsInput carries the keys typed in the admin panel
type SaveCredentialsInput struct {
	PublicKey     string              `json:"public_key" binding:"required"`
	AccessToken   string              `json:"access_token" binding:"required"`
	WebhookSecret string              `json:"webhook_secret"`
	Environment   payment.Environment `json:"environment" binding:"required,oneof=sandbox production"`
}

// CredentialsView is the admin view of the stored keys with secrets masked
type CredentialsView struct {
	Configured       bool                `json:"configured"`
	PublicKey        string              `json:"public_key,omitempty"`
	AccessToken      string              `json:"access_token,omitempty"`
	HasWebhookSecret bool                `json:"has_webhook_secret"`
	Environment      payment.Environment `json:"environment,omitempty"`
	LastTestedAt     *time.Time          `json:"last_tested_at,omitempty"`
	LastTestOK       *bool               `json:"last_test_ok,omitempty"`
	UpdatedAt        *time.Time          `json:"updated_at,omitempty"`
}

// TestResult is the outcome of a connectivity test
type TestResult struct {
	OK       bool             `json:"ok"`
	Account  *payment.Account `json:"account,omitempty"`
	TestedAt time.Time        `json:"tested_at"`
}

// CredentialService manages the store's Mercado Pago keys
type CredentialService struct {
	repo    payment.CredentialRepository
	gateway payment.Gateway
	sealer  Sealer
	mask    func(string) string
	logger  *zap.Logger
	now     func() time.Time
}

// NewCredentialService creates a new credential service
func NewCredentialService(repo payment.CredentialRepository, gateway payment.Gateway, sealer Sealer, mask func(string) string, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		repo:    repo,
		gateway: gateway,
		sealer:  sealer,
		mask:    mask,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the stored credentials with masked secrets
func (s *CredentialService) Get(ctx context.Context) (*CredentialsView, error) {
	creds, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &CredentialsView{Configured: false}, nil
		}
		return nil, err
	}
	token, err := s.sealer.Open(creds.SealedAccessToken)
	if err != nil {
		return nil, err
	}
	updatedAt := creds.UpdatedAt
	return &CredentialsView{
		Configured:       true,
		PublicKey:        creds.PublicKey,
		AccessToken:      s.mask(token),
		HasWebhookSecret: creds.SealedWebhookSecret != "",
		Environment:      creds.Environment,
		LastTestedAt:     creds.LastTestedAt,
		LastTestOK:       creds.LastTestOK,
		UpdatedAt:        &updatedAt,
	}, nil
}

// Save validates and stores the credentials, replacing previous ones.
// An empty webhook secret keeps the stored one.
func (s *CredentialService) Save(ctx context.Context, in SaveCredentialsInput) (*CredentialsView, error) {
	in.PublicKey = strings.TrimSpace(in.PublicKey)
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	if err := payment.ValidateCredentialInput(in.PublicKey, in.AccessToken, in.Environment); err != nil {
		return nil, err
	}

	now := s.now()
	creds, err := s.repo.Get(ctx)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		creds = &payment.Credentials{ID: payment.CredentialsID, CreatedAt: now}
	case err != nil:
		return nil, err
	}

	sealedToken, err := s.sealer.Seal(in.AccessToken)
	if err != nil {
		return nil, err
	}
	if secret := strings.TrimSpace(in.WebhookSecret); secret != "" {
		sealedSecret, err := s.sealer.Seal(secret)
		if err != nil {
			return nil, err
		}
		creds.SealedWebhookSecret = sealedSecret
	}

	creds.PublicKey = in.PublicKey
	creds.SealedAccessToken = sealedToken
	creds.Environment = in.Environment
	// new keys have not been tested yet
	creds.LastTestedAt = nil
	creds.LastTestOK = nil
	creds.UpdatedAt = now

	if err := s.repo.Save(ctx, creds); err != nil {
		return nil, err
	}
	s.logger.Info("Mercado Pago credentials saved", zap.String("environment", string(in.Environment)))
	return s.Get(ctx)
}

// Test calls /users/me with the stored token and records the outcome
func (s *CredentialService) Test(ctx context.Context) (*TestResult, error) {
	creds, token, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	account, callErr := s.gateway.Me(ctx, token)
	now := s.now()
	creds.RecordTest(callErr == nil, now)
	if err := s.repo.Save(ctx, creds); err != nil {
		s.logger.Error("Failed to record Mercado Pago test", zap.Error(err))
	}

	if callErr != nil {
		s.logger.Warn("Mercado Pago credential test failed", zap.Error(callErr))
		return nil, GatewayError(callErr)
	}
	s.logger.Info("Mercado Pago credential test passed", zap.Int64("account_id", account.ID))
	return &TestResult{OK: true, Account: account, TestedAt: now}, nil
}

// Delete removes the credentials; deleting twice is not an error
func (s *CredentialService) Delete(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return err
	}
	s.logger.Info("Mercado Pago credentials deleted")
	return nil
}

// AccessToken returns the plaintext token for proxy calls
func (s *CredentialService) AccessToken(ctx context.Context) (string, error) {
	_, token, err := s.load(ctx)
	return token, err
}

// WebhookSecret returns the plaintext webhook secret, empty when not set
func (s *CredentialService) WebhookSecret(ctx context.Context) (string, error) {
	creds, _, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return s.sealer.Open(creds.SealedWebhookSecret)
}

func (s *CredentialService) load(ctx context.Context) (*payment.Credentials, string, error) {
	creds, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", ErrNotConfigured
		}
		return nil, "", err
	}
	token, err := s.sealer.Open(creds.SealedAccessToken)
	if err != nil {
		return nil, "", fmt.Errorf("mercadopago: failed to open access token: %w", err)
	}
	return creds, token, nil
}

// ErrNotConfigured is returned when an operation needs credentials and none are stored
var ErrNotConfigured = shared.ErrInvalidState.WithMessage("Mercado Pago não configurado. Cadastre as credenciais em Configurações > Mercado Pago.")

// GatewayError converts gateway adapter errors to the messages shown to admins
func GatewayError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, payment.ErrGatewayNotConfigured):
		return ErrNotConfigured
	case errors.Is(err, payment.ErrGatewayUnauthorized):
		return shared.ErrUpstream.WithMessage("Mercado Pago recusou o Access Token: " + err.Error())
	case errors.Is(err, payment.ErrGatewayRequestFailed), errors.Is(err, payment.ErrGatewayInvalidResponse):
		return shared.ErrUpstream.WithMessage(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return err
}
