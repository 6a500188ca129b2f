package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// AdminClaims identify an authenticated admin session.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs an admin session token valid for ttl.
func GenerateAdminToken(jwtSecret string, ttl time.Duration, now time.Time) (string, error) {
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ID:        GenerateULID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

// ValidateAdminToken verifies signature, expiry and role.
func ValidateAdminToken(tokenString, jwtSecret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Role != "admin" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// entryClaims bind a cookie value to the cookie it was issued for.
type entryClaims struct {
	Name  string `json:"n"`
	Value string `json:"v"`
	jwt.RegisteredClaims
}

// SignValue wraps value in an HS256 token bound to name. A zero ttl issues a
// token without expiry.
func SignValue(secret, name, value string, ttl time.Duration, now time.Time) (string, error) {
	claims := entryClaims{Name: name, Value: value}
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign value: %w", err)
	}
	return signed, nil
}

// VerifyValue returns the value inside a token produced by SignValue for
// the same name.
func VerifyValue(secret, name, tokenString string) (string, error) {
	claims := &entryClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Name != name {
		return "", ErrInvalidToken
	}
	return claims.Value, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
