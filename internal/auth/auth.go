// Package auth guards the admin surface with a single bcrypt credential and
// short-lived HS256 JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when the login pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for expired, malformed or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the admin JWT claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Config contains the admin credential and signing configuration.
type Config struct {
	Username      string
	PasswordHash  string // bcrypt hash
	JWTSecret     string
	TokenDuration time.Duration
}

// Admin handles admin authentication.
type Admin struct {
	config Config
}

// New creates an Admin authenticator.
func New(config Config) *Admin {
	if config.TokenDuration <= 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &Admin{config: config}
}

// Login verifies the credential pair and mints a token.
func (a *Admin) Login(username, password string) (string, error) {
	if username != a.config.Username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.config.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims when valid and admin-scoped.
func (a *Admin) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Role != "admin" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenTTL returns the configured token lifetime.
func (a *Admin) TokenTTL() time.Duration {
	return a.config.TokenDuration
}

// HashPassword produces a bcrypt hash for configuration bootstrap.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}
	return string(hash), nil
}
