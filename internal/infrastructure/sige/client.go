package sige

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxErrorMessage caps how much of an upstream error body is echoed to the admin
const maxErrorMessage = 500

// Transport is the HTTP plumbing shared by the SIGE clients: one rate limiter
// for every call the process makes against the store account.
type Transport struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	maxResponseSize int64
	logger          *zap.Logger
	now             func() time.Time
}

// NewTransport creates the shared SIGE transport
func NewTransport(cfg *Config, logger *zap.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:         rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		maxResponseSize: cfg.MaxResponseSize,
		logger:          logger,
		now:             time.Now,
	}, nil
}

// doRequest performs one rate-limited call and maps upstream failures to domain errors
func (t *Transport) doRequest(ctx context.Context, method, path string, query url.Values, body []byte, token string) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, shared.ErrRateLimited.WithMessage("SIGE: limite de requisições excedido, tente novamente em instantes")
	}

	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("sige: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := t.now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, shared.ErrUpstream.WithMessage("SIGE indisponível: " + err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("sige: failed to read response: %w", err)
	}
	if int64(len(data)) > t.maxResponseSize {
		t.logger.Warn("SIGE response too large",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int64("limit", t.maxResponseSize),
		)
		return nil, shared.ErrUpstream.WithMessage(fmt.Sprintf("Resposta do SIGE excede %d bytes", t.maxResponseSize))
	}

	t.logger.Debug("SIGE call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", t.now().Sub(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, shared.ErrRateLimited.WithMessage("SIGE: limite de requisições excedido, tente novamente em instantes")
	case resp.StatusCode >= 400:
		return nil, shared.ErrUpstream.WithMessage(upstreamMessage(resp.StatusCode, data))
	}
	return data, nil
}

// upstreamMessage extracts the error string SIGE sent, falling back to the raw body
func upstreamMessage(status int, body []byte) string {
	var errResp sigeErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.message() != "" {
		return errResp.message()
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("SIGE retornou HTTP %d", status)
	}
	return truncateUTF8(msg, maxErrorMessage)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// AuthClient implements sige.AuthAPI
type AuthClient struct {
	transport *Transport
}

// NewAuthClient creates the unauthenticated auth client
func NewAuthClient(t *Transport) *AuthClient {
	return &AuthClient{transport: t}
}

// Login exchanges store credentials for a token pair
func (c *AuthClient) Login(ctx context.Context, creds sige.Credentials) (sige.Token, error) {
	body, err := json.Marshal(sigeLoginRequest{Usuario: creds.User, Senha: creds.Password, AppKey: creds.AppKey})
	if err != nil {
		return sige.Token{}, fmt.Errorf("sige: failed to marshal request: %w", err)
	}
	return c.exchange(ctx, "/auth/login", body)
}

// Refresh exchanges a refresh token for a new token pair
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (sige.Token, error) {
	body, err := json.Marshal(sigeRefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return sige.Token{}, fmt.Errorf("sige: failed to marshal request: %w", err)
	}
	return c.exchange(ctx, "/auth/refresh", body)
}

func (c *AuthClient) exchange(ctx context.Context, path string, body []byte) (sige.Token, error) {
	data, err := c.transport.doRequest(ctx, http.MethodPost, path, nil, body, "")
	if err != nil {
		return sige.Token{}, err
	}
	var resp sigeTokenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return sige.Token{}, shared.ErrUpstream.WithMessage("SIGE: resposta de autenticação inválida")
	}
	if resp.AccessToken == "" {
		return sige.Token{}, shared.ErrUpstream.WithMessage("SIGE: token de acesso ausente na resposta")
	}
	return resp.toToken(c.transport.now()), nil
}

// Client implements sige.API and the catalog lookups on the shared transport
type Client struct {
	transport *Transport
	tokens    sige.TokenProvider
}

// NewClient creates an authenticated SIGE client
func NewClient(t *Transport, tokens sige.TokenProvider) *Client {
	return &Client{transport: t, tokens: tokens}
}

// Do performs an authenticated call. The response is returned verbatim when it
// is JSON; any other payload is returned as a JSON string.
func (c *Client) Do(ctx context.Context, r sige.Request) (json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	data, err := c.transport.doRequest(ctx, r.Method, r.Path, r.Query, r.Body, token)
	if err != nil {
		return nil, err
	}
	return asJSON(data), nil
}

func asJSON(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

// getJSON performs an authenticated GET and decodes the response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.Do(ctx, sige.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(shared.ErrUpstream.WithMessage("SIGE: resposta inesperada em "+path), err)
	}
	return nil
}

var (
	_ sige.AuthAPI = (*AuthClient)(nil)
	_ sige.API     = (*Client)(nil)
)
