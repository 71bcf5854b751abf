package sige

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"go.uber.org/zap"
)

// DefaultRefreshSkew refreshes tokens this long before they expire
const DefaultRefreshSkew = time.Minute

// refreshTimeout bounds a refresh detached from the caller
const refreshTimeout = 15 * time.Second

// Sealer encrypts tokens at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// ConnectInput carries the store account credentials
type ConnectInput struct {
	User     string `json:"user" binding:"required"`
	Password string `json:"password" binding:"required"`
	AppKey   string `json:"app_key"`
}

// ConnectionService manages the stored SIGE session and supplies bearer
// tokens to the SIGE client, refreshing them shortly before expiry.
type ConnectionService struct {
	repo   sige.ConnectionRepository
	auth   sige.AuthAPI
	sealer Sealer
	skew   time.Duration
	logger *zap.Logger
	now    func() time.Time

	// serializes token refreshes so only one is in flight
	mu sync.Mutex
}

// NewConnectionService creates a new connection service
func NewConnectionService(repo sige.ConnectionRepository, authAPI sige.AuthAPI, sealer Sealer, skew time.Duration, logger *zap.Logger) *ConnectionService {
	if skew <= 0 {
		skew = DefaultRefreshSkew
	}
	return &ConnectionService{
		repo:   repo,
		auth:   authAPI,
		sealer: sealer,
		skew:   skew,
		logger: logger,
		now:    time.Now,
	}
}

// Connect exchanges credentials for tokens and stores them
func (s *ConnectionService) Connect(ctx context.Context, input ConnectInput) (*sige.Status, error) {
	user := strings.TrimSpace(input.User)
	if user == "" || input.Password == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Informe usuário e senha do SIGE")
	}

	token, err := s.auth.Login(ctx, sige.Credentials{User: user, Password: input.Password, AppKey: strings.TrimSpace(input.AppKey)})
	if err != nil {
		s.logger.Warn("SIGE login failed", zap.String("user", user), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	account := token.Account
	if account == "" {
		account = user
	}
	conn := &sige.Connection{ID: sige.ConnectionID, Account: account, ConnectedAt: now}
	if err := s.store(ctx, conn, token, now); err != nil {
		return nil, err
	}

	s.logger.Info("SIGE connected", zap.String("account", conn.Account), zap.Time("expires_at", conn.ExpiresAt))
	return statusOf(conn, now), nil
}

// Refresh exchanges the stored refresh token for a new token pair
func (s *ConnectionService) Refresh(ctx context.Context) (*sige.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, conn); err != nil {
		return nil, err
	}
	return statusOf(conn, s.now()), nil
}

// Disconnect removes the stored session; disconnecting twice is not an error
func (s *ConnectionService) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		return err
	}
	s.logger.Info("SIGE disconnected")
	return nil
}

// Status describes the stored session
func (s *ConnectionService) Status(ctx context.Context) (*sige.Status, error) {
	conn, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &sige.Status{Connected: false}, nil
		}
		return nil, err
	}
	return statusOf(conn, s.now()), nil
}

// AccessToken returns a usable bearer token, refreshing it when it expires
// within the skew window. If the refresh fails while the current token is
// still valid, the current token is returned.
func (s *ConnectionService) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	now := s.now()
	if conn.ExpiresWithin(now, s.skew) {
		if err := s.refresh(ctx, conn); err != nil {
			if conn.Expired(now) {
				return "", err
			}
			s.logger.Warn("SIGE token refresh failed, using current token", zap.Error(err))
		}
	}

	token, err := s.sealer.Open(conn.SealedAccessToken)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *ConnectionService) load(ctx context.Context) (*sige.Connection, error) {
	conn, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sige.ErrNotConnected
		}
		return nil, err
	}
	return conn, nil
}

// refresh must be called with mu held. SIGE rotates the refresh token, so
// the exchange and the save outlive a cancelled caller.
func (s *ConnectionService) refresh(parent context.Context, conn *sige.Connection) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), refreshTimeout)
	defer cancel()

	refreshToken, err := s.sealer.Open(conn.SealedRefreshToken)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return shared.ErrInvalidState.WithMessage("Sessão SIGE sem refresh token. Conecte novamente.")
	}

	token, err := s.auth.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn("SIGE token refresh failed", zap.Error(err))
		return err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	now := s.now()
	conn.RefreshedAt = &now
	if token.Account != "" {
		conn.Account = token.Account
	}
	if err := s.store(ctx, conn, token, now); err != nil {
		return err
	}
	s.logger.Info("SIGE token refreshed", zap.Time("expires_at", conn.ExpiresAt))
	return nil
}

func (s *ConnectionService) store(ctx context.Context, conn *sige.Connection, token sige.Token, now time.Time) error {
	sealedAccess, err := s.sealer.Seal(token.AccessToken)
	if err != nil {
		return err
	}
	sealedRefresh, err := s.sealer.Seal(token.RefreshToken)
	if err != nil {
		return err
	}
	conn.SealedAccessToken = sealedAccess
	conn.SealedRefreshToken = sealedRefresh
	conn.ExpiresAt = token.ExpiresAt
	conn.UpdatedAt = now
	return s.repo.Save(ctx, conn)
}

func statusOf(conn *sige.Connection, now time.Time) *sige.Status {
	expiresAt := conn.ExpiresAt
	connectedAt := conn.ConnectedAt
	return &sige.Status{
		Connected:   true,
		Account:     conn.Account,
		ExpiresAt:   &expiresAt,
		Expired:     conn.Expired(now),
		ConnectedAt: &connectedAt,
		RefreshedAt: conn.RefreshedAt,
	}
}

var _ sige.TokenProvider = (*ConnectionService)(nil)
