package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/statload/backend/internal/infrastructure/config"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash stored in auth.admin_password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticator checks the single operator account
type Authenticator struct {
	user string
	hash []byte
}

// NewAuthenticator creates an authenticator for the configured operator
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{user: cfg.AdminUser, hash: []byte(cfg.AdminPasswordHash)}
}

// Enabled reports whether a password hash is configured
func (a *Authenticator) Enabled() bool {
	return len(a.hash) > 0
}

// Authenticate verifies username and password
func (a *Authenticator) Authenticate(username, password string) error {
	if !a.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.user)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
