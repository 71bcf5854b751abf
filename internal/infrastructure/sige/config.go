package sige

import (
	"errors"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/infrastructure/config"
)

// Defaults applied by Validate
const (
	DefaultTimeout         = 15 * time.Second
	DefaultRequestsPerSec  = 3.0
	DefaultBurst           = 5
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// ErrConfigMissingBaseURL is returned when no SIGE endpoint is configured
var ErrConfigMissingBaseURL = errors.New("sige: base url is required")

// Config holds the SIGE client settings
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	MaxResponseSize int64
}

// NewConfig builds a client config from the application config
func NewConfig(cfg config.SigeConfig) *Config {
	return &Config{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		RequestsPerSec:  cfg.RequestsPerSec,
		Burst:           cfg.Burst,
		MaxResponseSize: cfg.MaxResponseSize,
	}
}

// Validate checks required fields and fills defaults
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = DefaultRequestsPerSec
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	return nil
}
