package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
)

// ErrAdminDisabled is returned when no admin credential or JWT secret is set.
var ErrAdminDisabled = errors.New("admin access not configured")

// AuthService handles the admin login and session tokens.
type AuthService struct {
	checker *security.PasswordChecker
	secret  string
	ttl     time.Duration
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

// NewAuthService creates the service.
func NewAuthService(checker *security.PasswordChecker, jwtSecret string, ttl time.Duration, logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		checker: checker,
		secret:  jwtSecret,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Enabled reports whether admin login can succeed at all.
func (a *AuthService) Enabled() bool {
	return a.checker != nil && a.checker.Enabled() && a.secret != ""
}

// AuthenticateAdmin checks password and issues a session token.
func (a *AuthService) AuthenticateAdmin(password string) (*AuthResult, error) {
	if !a.Enabled() {
		return nil, ErrAdminDisabled
	}
	if err := a.checker.Check(password); err != nil {
		a.logger.Auth().Warn("Admin login rejected")
		return nil, err
	}

	now := a.now()
	token, err := security.GenerateAdminToken(a.secret, a.ttl, now)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	a.logger.Auth().Info("Admin login succeeded", "expiresIn", a.ttl)
	return &AuthResult{Token: token, ExpiresAt: now.Add(a.ttl)}, nil
}

// ValidateToken verifies an admin session token.
func (a *AuthService) ValidateToken(token string) (*security.AdminClaims, error) {
	if !a.Enabled() {
		return nil, ErrAdminDisabled
	}
	if token == "" {
		return nil, security.ErrInvalidToken
	}
	return security.ValidateAdminToken(token, a.secret)
}
