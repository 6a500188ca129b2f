package security

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPassword = errors.New("invalid password")

// HashPassword hashes password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// PasswordChecker verifies the admin password against a bcrypt hash, or a
// plain password when no hash is configured.
type PasswordChecker struct {
	hash  []byte
	plain []byte
}

func NewPasswordChecker(hash, plain string) *PasswordChecker {
	return &PasswordChecker{hash: []byte(hash), plain: []byte(plain)}
}

// Enabled reports whether any credential is configured.
func (p *PasswordChecker) Enabled() bool {
	return len(p.hash) > 0 || len(p.plain) > 0
}

func (p *PasswordChecker) Check(password string) error {
	switch {
	case len(p.hash) > 0:
		if err := bcrypt.CompareHashAndPassword(p.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	case len(p.plain) > 0:
		if subtle.ConstantTimeCompare(p.plain, []byte(password)) != 1 {
			return ErrInvalidPassword
		}
		return nil
	}
	return ErrInvalidPassword
}
