package services

import (
	"testing"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	logger := logging.NewDiscardLogger()

	t.Run("disabled without credentials", func(t *testing.T) {
		svc := NewAuthService(security.NewPasswordChecker("", ""), "secret", time.Hour, logger)
		assert.False(t, svc.Enabled())
		_, err := svc.AuthenticateAdmin("anything")
		assert.ErrorIs(t, err, ErrAdminDisabled)
	})

	t.Run("disabled without secret", func(t *testing.T) {
		svc := NewAuthService(security.NewPasswordChecker("", "pw"), "", time.Hour, logger)
		assert.False(t, svc.Enabled())
		_, err := svc.ValidateToken("x")
		assert.ErrorIs(t, err, ErrAdminDisabled)
	})

	t.Run("bcrypt login round trip", func(t *testing.T) {
		hash, err := security.HashPassword("s3cret")
		require.NoError(t, err)
		svc := NewAuthService(security.NewPasswordChecker(hash, ""), "jwt-secret", time.Hour, logger)

		_, err = svc.AuthenticateAdmin("wrong")
		assert.ErrorIs(t, err, security.ErrInvalidPassword)

		result, err := svc.AuthenticateAdmin("s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

		claims, err := svc.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("rejects foreign tokens", func(t *testing.T) {
		svc := NewAuthService(security.NewPasswordChecker("", "pw"), "jwt-secret", time.Hour, logger)
		other, err := security.GenerateAdminToken("other-secret", time.Hour, time.Now())
		require.NoError(t, err)

		_, err = svc.ValidateToken(other)
		assert.ErrorIs(t, err, security.ErrInvalidToken)
		_, err = svc.ValidateToken("")
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	})
}
