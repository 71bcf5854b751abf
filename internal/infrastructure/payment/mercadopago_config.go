package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/config"
)

// Mercado Pago defaults
const (
	MercadoPagoDefaultBaseURL = "https://api.mercadopago.com"
	MercadoPagoDefaultTimeout = 20 * time.Second
	mercadoPagoMaxResponse    = 5 * 1024 * 1024
)

// ErrMercadoPagoMissingBaseURL is returned when the API endpoint is blank after defaults
var ErrMercadoPagoMissingBaseURL = errors.New("mercadopago: missing base url")

// MercadoPagoConfig contains the REST client settings
type MercadoPagoConfig struct {
	// BaseURL is the API root, overridable for tests
	BaseURL string
	// Timeout bounds a single API call
	Timeout time.Duration
	// NotificationURL is set on preferences that do not carry their own
	NotificationURL string
}

// NewMercadoPagoConfig builds the client config from the application config
func NewMercadoPagoConfig(cfg config.MercadoPagoConfig) *MercadoPagoConfig {
	return &MercadoPagoConfig{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		NotificationURL: cfg.NotificationURL,
	}
}

// Validate fills defaults and validates the configuration
func (c *MercadoPagoConfig) Validate() error {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = MercadoPagoDefaultBaseURL
	}
	if !strings.HasPrefix(c.BaseURL, "http") {
		return ErrMercadoPagoMissingBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = MercadoPagoDefaultTimeout
	}
	return nil
}
