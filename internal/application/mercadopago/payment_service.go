package mercadopago

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/autopecas/backend/internal/domain/shared"
	paymentinfra "github.com/autopecas/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned for webhooks that fail signature verification
var ErrInvalidSignature = shared.ErrUnauthorized.WithMessage("Assinatura do webhook inválida")

// TokenSource resolves the stored access token
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	WebhookSecret(ctx context.Context) (string, error)
}

// WebhookInput is a raw Mercado Pago notification
type WebhookInput struct {
	Payload   []byte
	Signature string
	RequestID string
	DataID    string
}

// WebhookResult is the outcome of processing a notification
type WebhookResult struct {
	Type      string                `json:"type"`
	DataID    string                `json:"data_id"`
	Processed bool                  `json:"processed"`
	Status    payment.PaymentStatus `json:"status,omitempty"`
}

// PaymentService proxies Mercado Pago calls with the stored credentials
type PaymentService struct {
	gateway payment.Gateway
	tokens  TokenSource
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway payment.Gateway, tokens TokenSource, logger *zap.Logger) *PaymentService {
	return &PaymentService{gateway: gateway, tokens: tokens, logger: logger}
}

// PaymentMethods lists the payment methods enabled for the account
func (s *PaymentService) PaymentMethods(ctx context.Context) (json.RawMessage, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	methods, err := s.gateway.PaymentMethods(ctx, token)
	return methods, GatewayError(err)
}

// CreatePreference creates a Checkout Pro preference
func (s *PaymentService) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Informe ao menos um item")
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, shared.ErrInvalidInput.WithMessage("Quantidade deve ser maior que zero: " + it.Title)
		}
		if !it.UnitPrice.IsPositive() {
			return nil, shared.ErrInvalidInput.WithMessage("Preço unitário deve ser maior que zero: " + it.Title)
		}
	}
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	pref, err := s.gateway.CreatePreference(ctx, token, req)
	if err != nil {
		return nil, GatewayError(err)
	}
	s.logger.Info("Mercado Pago preference created",
		zap.String("preference_id", pref.ID),
		zap.String("external_reference", req.ExternalReference),
		zap.String("total", req.Total().StringFixed(2)))
	return pref, nil
}

// GetPayment fetches one payment
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	if id == "" {
		return nil, shared.ErrInvalidInput.WithMessage("ID do pagamento é obrigatório")
	}
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.gateway.GetPayment(ctx, token, id)
	return p, GatewayError(err)
}

// SearchPayments passes the query through to /v1/payments/search
func (s *PaymentService) SearchPayments(ctx context.Context, params url.Values) (json.RawMessage, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.gateway.SearchPayments(ctx, token, params)
	return result, GatewayError(err)
}

// HandleWebhook verifies a notification and fetches the payment it refers to.
// Notifications are rejected when no webhook secret is stored.
func (s *PaymentService) HandleWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	n, err := paymentinfra.ParseWebhook(in.Payload, in.DataID)
	if err != nil {
		s.logger.Warn("Malformed Mercado Pago webhook", zap.Error(err))
		return nil, shared.ErrInvalidInput.WithMessage("Notificação inválida")
	}

	secret, err := s.tokens.WebhookSecret(ctx)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		s.logger.Warn("Mercado Pago webhook received without a configured secret")
		return nil, ErrInvalidSignature
	}
	if err := paymentinfra.VerifyWebhookSignature(secret, in.Signature, in.RequestID, n.DataID); err != nil {
		s.logger.Warn("Mercado Pago webhook signature rejected",
			zap.String("request_id", in.RequestID),
			zap.String("data_id", n.DataID))
		return nil, ErrInvalidSignature
	}

	result := &WebhookResult{Type: n.Type, DataID: n.DataID}
	if !n.IsPayment() {
		s.logger.Debug("Ignoring Mercado Pago notification",
			zap.String("type", n.Type),
			zap.String("action", n.Action))
		return result, nil
	}

	p, err := s.GetPayment(ctx, n.DataID)
	if err != nil {
		s.logger.Error("Failed to fetch notified payment",
			zap.String("payment_id", n.DataID),
			zap.Error(err))
		return nil, err
	}
	result.Processed = true
	result.Status = p.Status
	s.logger.Info("Mercado Pago payment notification",
		zap.Int64("payment_id", p.ID),
		zap.String("action", n.Action),
		zap.String("status", string(p.Status)),
		zap.String("status_detail", p.StatusDetail),
		zap.String("external_reference", p.ExternalReference),
		zap.Bool("final", p.Status.IsFinal()))
	return result, nil
}

