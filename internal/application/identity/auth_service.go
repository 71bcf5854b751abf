package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/identity"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for an unknown e-mail or a wrong password
var ErrInvalidCredentials = shared.ErrUnauthorized.WithMessage("E-mail ou senha inválidos")

// AuthService handles admin authentication
type AuthService struct {
	adminRepo  identity.AdminUserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout is a no-op on the server side.
func NewAuthService(
	adminRepo identity.AdminUserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
		now:        time.Now,
	}
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := identity.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Informe e-mail e senha")
	}

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown admin", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !admin.CheckPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("admin_id", admin.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !admin.Active {
		s.logger.Warn("Login attempt for deactivated admin", zap.String("admin_id", admin.ID.String()))
		return nil, shared.ErrForbidden.WithMessage("Usuário desativado")
	}

	issued, err := s.jwtService.Issue(auth.Subject{AdminID: admin.ID, Email: admin.Email, Name: admin.Name})
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.Error(err))
		return nil, err
	}

	admin.RecordLogin(s.now())
	if err := s.adminRepo.Save(ctx, admin); err != nil {
		// the token is already valid; a stale last_login_at is acceptable
		s.logger.Error("Failed to record admin login", zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))
	return &LoginResult{
		AccessToken: issued.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
		Admin:       toAdminInfo(admin),
	}, nil
}

// Me returns the admin owning the token
func (s *AuthService) Me(ctx context.Context, adminID uuid.UUID) (*AdminInfo, error) {
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !admin.Active {
		return nil, shared.ErrForbidden.WithMessage("Usuário desativado")
	}
	info := toAdminInfo(admin)
	return &info, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return err
	}
	s.logger.Info("Admin logged out", zap.String("admin_id", claims.AdminID))
	return nil
}

// Bootstrap creates the first admin when the table is empty. It reports
// whether an admin was created; an empty e-mail disables bootstrapping.
func (s *AuthService) Bootstrap(ctx context.Context, input BootstrapInput) (bool, error) {
	if strings.TrimSpace(input.Email) == "" {
		return false, nil
	}
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	admin, err := identity.NewAdminUser(input.Email, input.Name, input.Password)
	if err != nil {
		return false, err
	}
	if err := s.adminRepo.Save(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info("Bootstrap admin created", zap.String("email", admin.Email))
	return true, nil
}
