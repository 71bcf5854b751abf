package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autopecas/backend/internal/domain/payment"
)

// WebhookNotification is a verified Mercado Pago notification
type WebhookNotification struct {
	Type   string
	Action string
	DataID string
}

// IsPayment reports whether the notification refers to a payment
func (n WebhookNotification) IsPayment() bool {
	return n.Type == "payment" || strings.HasPrefix(n.Action, "payment.")
}

// ParseWebhook decodes a notification body. dataIDQuery is the data.id query
// parameter, which Mercado Pago signs and which wins over the body value.
func ParseWebhook(payload []byte, dataIDQuery string) (WebhookNotification, error) {
	var body mercadoPagoWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return WebhookNotification{}, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidCallback, err)
	}
	n := WebhookNotification{Type: body.Type, Action: body.Action, DataID: body.Data.ID}
	if dataIDQuery != "" {
		n.DataID = dataIDQuery
	}
	if n.DataID == "" {
		return WebhookNotification{}, fmt.Errorf("%w: missing data.id", payment.ErrGatewayInvalidCallback)
	}
	return n, nil
}

// VerifyWebhookSignature checks the x-signature header ("ts=...,v1=...") as
// HMAC-SHA256 of "id:{dataID};request-id:{requestID};ts:{ts};" keyed by the webhook secret.
func VerifyWebhookSignature(secret, signature, requestID, dataID string) error {
	if secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", payment.ErrGatewayInvalidCallback)
	}
	ts, v1 := parseSignatureHeader(signature)
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed x-signature", payment.ErrGatewayInvalidCallback)
	}

	expected := webhookDigest(secret, webhookManifest(dataID, requestID, ts))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return payment.ErrGatewayInvalidCallback
	}
	return nil
}

// SignWebhook produces an x-signature header value; used by tests and local tooling
func SignWebhook(secret, requestID, dataID, ts string) string {
	return "ts=" + ts + ",v1=" + webhookDigest(secret, webhookManifest(dataID, requestID, ts))
}

func webhookManifest(dataID, requestID, ts string) string {
	var manifest strings.Builder
	if dataID != "" {
		// alphanumeric ids are signed in lower case
		manifest.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")
	return manifest.String()
}

func webhookDigest(secret, manifest string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
