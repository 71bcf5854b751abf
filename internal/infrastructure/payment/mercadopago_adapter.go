package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// MercadoPagoAdapter implements payment.Gateway against the Mercado Pago REST API.
// The access token is passed per call since credentials live in the database
// and may change while the process runs.
type MercadoPagoAdapter struct {
	config     *MercadoPagoConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMercadoPagoAdapter creates a new Mercado Pago adapter
func NewMercadoPagoAdapter(cfg *MercadoPagoConfig, logger *zap.Logger) (*MercadoPagoAdapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MercadoPagoAdapter{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

// Me returns the account owning the access token
func (a *MercadoPagoAdapter) Me(ctx context.Context, accessToken string) (*payment.Account, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/users/me", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	var account payment.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	return &account, nil
}

// PaymentMethods lists the payment methods available to the account
func (a *MercadoPagoAdapter) PaymentMethods(ctx context.Context, accessToken string) (json.RawMessage, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/v1/payment_methods", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// CreatePreference creates a Checkout Pro preference
func (a *MercadoPagoAdapter) CreatePreference(ctx context.Context, accessToken string, req payment.PreferenceRequest) (*payment.Preference, error) {
	body, err := json.Marshal(toMercadoPagoPreference(req, a.config.NotificationURL))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to marshal preference: %w", err)
	}
	data, err := a.doRequest(ctx, http.MethodPost, "/checkout/preferences", nil, body, accessToken)
	if err != nil {
		return nil, err
	}
	var pref payment.Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	return &pref, nil
}

// GetPayment fetches one payment by ID
func (a *MercadoPagoAdapter) GetPayment(ctx context.Context, accessToken, paymentID string) (*payment.Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", payment.ErrGatewayRequestFailed)
	}
	data, err := a.doRequest(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	var p payment.Payment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
	}
	return &p, nil
}

// SearchPayments passes the query through to /v1/payments/search
func (a *MercadoPagoAdapter) SearchPayments(ctx context.Context, accessToken string, params url.Values) (json.RawMessage, error) {
	data, err := a.doRequest(ctx, http.MethodGet, "/v1/payments/search", params, nil, accessToken)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// doRequest performs an HTTP request to the Mercado Pago API
func (a *MercadoPagoAdapter) doRequest(ctx context.Context, method, path string, query url.Values, body []byte, accessToken string) ([]byte, error) {
	if accessToken == "" {
		return nil, payment.ErrGatewayNotConfigured
	}

	target := a.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, mercadoPagoMaxResponse))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		a.logger.Warn("Mercado Pago request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		sentinel := payment.ErrGatewayRequestFailed
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			sentinel = payment.ErrGatewayUnauthorized
		}
		var errResp mercadoPagoError
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.text() != "" {
			return nil, fmt.Errorf("%w: %s", sentinel, errResp.text())
		}
		return nil, fmt.Errorf("%w: HTTP %d", sentinel, resp.StatusCode)
	}

	return respBody, nil
}

var _ payment.Gateway = (*MercadoPagoAdapter)(nil)
