package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMercadoPagoTestAdapter(t *testing.T, handler http.HandlerFunc) *MercadoPagoAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter, err := NewMercadoPagoAdapter(&MercadoPagoConfig{BaseURL: server.URL, NotificationURL: "https://loja.example.com/api/v1/webhooks/mercadopago"}, nil)
	require.NoError(t, err)
	return adapter
}

func TestMercadoPagoConfig_Validate(t *testing.T) {
	cfg := &MercadoPagoConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MercadoPagoDefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, MercadoPagoDefaultTimeout, cfg.Timeout)

	bad := &MercadoPagoConfig{BaseURL: "ftp.example.com"}
	assert.ErrorIs(t, bad.Validate(), ErrMercadoPagoMissingBaseURL)
}

func TestMercadoPagoAdapter_Me(t *testing.T) {
	adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer TEST-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":987,"nickname":"AUTOPECAS","email":"loja@example.com","site_id":"MLB"}`))
	})

	account, err := adapter.Me(context.Background(), "TEST-123")
	require.NoError(t, err)
	assert.Equal(t, int64(987), account.ID)
	assert.Equal(t, "MLB", account.SiteID)
}

func TestMercadoPagoAdapter_Errors(t *testing.T) {
	t.Run("missing token never calls the API", func(t *testing.T) {
		adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected call")
		})
		_, err := adapter.Me(context.Background(), "")
		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})

	t.Run("401 maps to unauthorized with upstream message", func(t *testing.T) {
		adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid access token","error":"unauthorized","status":401}`))
		})
		_, err := adapter.Me(context.Background(), "TEST-bad")
		assert.ErrorIs(t, err, payment.ErrGatewayUnauthorized)
		assert.Contains(t, err.Error(), "invalid access token")
	})

	t.Run("other failures map to request failed", func(t *testing.T) {
		adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := adapter.PaymentMethods(context.Background(), "TEST-1")
		assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
		assert.Contains(t, err.Error(), "HTTP 500")
	})

	t.Run("malformed body is invalid response", func(t *testing.T) {
		adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})
		_, err := adapter.GetPayment(context.Background(), "TEST-1", "42")
		assert.ErrorIs(t, err, payment.ErrGatewayInvalidResponse)
	})
}

func TestMercadoPagoAdapter_CreatePreference(t *testing.T) {
	adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://loja.example.com/api/v1/webhooks/mercadopago", body["notification_url"])
		item := body["items"].([]any)[0].(map[string]any)
		assert.Equal(t, "BRL", item["currency_id"])
		assert.Equal(t, 32.9, item["unit_price"])

		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/checkout","sandbox_init_point":"https://sandbox/checkout"}`))
	})

	pref, err := adapter.CreatePreference(context.Background(), "TEST-1", payment.PreferenceRequest{
		Items: []payment.PreferenceItem{{Title: "Filtro de Óleo", Quantity: 2, UnitPrice: decimal.RequireFromString("32.90")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://sandbox/checkout", pref.SandboxInitPoint)
}

func TestMercadoPagoAdapter_Payments(t *testing.T) {
	adapter := newMercadoPagoTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payments/42":
			_, _ = w.Write([]byte(`{"id":42,"status":"approved","status_detail":"accredited","external_reference":"PED-1","transaction_amount":65.8,"currency_id":"BRL"}`))
		case "/v1/payments/search":
			assert.Equal(t, "PED-1", r.URL.Query().Get("external_reference"))
			_, _ = w.Write([]byte(`{"results":[],"paging":{"total":0}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	p, err := adapter.GetPayment(ctx, "TEST-1", "42")
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentStatusApproved, p.Status)
	assert.True(t, p.TransactionAmount.Equal(decimal.RequireFromString("65.8")))

	raw, err := adapter.SearchPayments(ctx, "TEST-1", map[string][]string{"external_reference": {"PED-1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[],"paging":{"total":0}}`, string(raw))

	_, err = adapter.GetPayment(ctx, "TEST-1", " ")
	assert.ErrorIs(t, err, payment.ErrGatewayRequestFailed)
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "webhook-secret"
	header := SignWebhook(secret, "req-1", "ABC123", "1704908010")

	assert.NoError(t, VerifyWebhookSignature(secret, header, "req-1", "ABC123"))
	assert.NoError(t, VerifyWebhookSignature(secret, header, "req-1", "abc123"))

	assert.ErrorIs(t, VerifyWebhookSignature(secret, header, "req-2", "ABC123"), payment.ErrGatewayInvalidCallback)
	assert.ErrorIs(t, VerifyWebhookSignature("other", header, "req-1", "ABC123"), payment.ErrGatewayInvalidCallback)
	assert.ErrorIs(t, VerifyWebhookSignature(secret, "v1=abc", "req-1", "ABC123"), payment.ErrGatewayInvalidCallback)
	assert.ErrorIs(t, VerifyWebhookSignature("", header, "req-1", "ABC123"), payment.ErrGatewayInvalidCallback)
}

func TestParseWebhook(t *testing.T) {
	n, err := ParseWebhook([]byte(`{"type":"payment","action":"payment.updated","data":{"id":"42"}}`), "")
	require.NoError(t, err)
	assert.True(t, n.IsPayment())
	assert.Equal(t, "42", n.DataID)

	n, err = ParseWebhook([]byte(`{"type":"payment","data":{"id":"42"}}`), "43")
	require.NoError(t, err)
	assert.Equal(t, "43", n.DataID)

	_, err = ParseWebhook([]byte(`{"type":"payment"}`), "")
	assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)

	_, err = ParseWebhook([]byte(`not json`), "")
	assert.ErrorIs(t, err, payment.ErrGatewayInvalidCallback)
}
