package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	errorMessageInvalidCredentials  = "invalid_credentials"
	errorMessageMissingUsername     = "auth: missing admin username"
	errorMessageMissingPassword     = "auth: missing admin password or password hash"
	errorMessageInvalidPasswordHash = "auth: invalid admin password hash"
)

var (
	// ErrInvalidCredentials is returned for any username/password mismatch.
	ErrInvalidCredentials = errors.New(errorMessageInvalidCredentials)
	// ErrMissingAdminUsername indicates no admin username was configured.
	ErrMissingAdminUsername = errors.New(errorMessageMissingUsername)
	// ErrMissingAdminPassword indicates neither a password nor a password hash was configured.
	ErrMissingAdminPassword = errors.New(errorMessageMissingPassword)
	// ErrInvalidPasswordHash indicates the configured hash is not a bcrypt hash.
	ErrInvalidPasswordHash = errors.New(errorMessageInvalidPasswordHash)
)

// Credentials is the immutable admin username/password pair loaded at startup. The password is
// held either in plain form or as a bcrypt hash; the hash wins when both are configured.
type Credentials struct {
	username     string
	password     string
	passwordHash []byte
}

func NewCredentials(username string, password string, passwordHash string) (Credentials, error) {
	trimmedUsername := strings.TrimSpace(username)
	if trimmedUsername == "" {
		return Credentials{}, ErrMissingAdminUsername
	}

	trimmedHash := strings.TrimSpace(passwordHash)
	if trimmedHash != "" {
		if _, costErr := bcrypt.Cost([]byte(trimmedHash)); costErr != nil {
			return Credentials{}, ErrInvalidPasswordHash
		}
		return Credentials{username: trimmedUsername, passwordHash: []byte(trimmedHash)}, nil
	}

	trimmedPassword := strings.TrimSpace(password)
	if trimmedPassword == "" {
		return Credentials{}, ErrMissingAdminPassword
	}
	return Credentials{username: trimmedUsername, password: trimmedPassword}, nil
}

func (credentials Credentials) Username() string {
	return credentials.username
}

// Matches reports whether the trimmed inputs equal the configured pair. Both comparisons
// always run so a wrong username takes as long as a wrong password.
func (credentials Credentials) Matches(username string, password string) bool {
	usernameMatches := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(credentials.username)) == 1
	passwordMatches := credentials.passwordMatches(strings.TrimSpace(password))
	return usernameMatches && passwordMatches
}

func (credentials Credentials) passwordMatches(password string) bool {
	if len(credentials.passwordHash) > 0 {
		return bcrypt.CompareHashAndPassword(credentials.passwordHash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(credentials.password)) == 1
}
