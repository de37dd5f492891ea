package auth

import (
	"errors"

	"github.com/gorilla/sessions"
)

const (
	errorMessageAuthRequired = "auth_required"

	// SessionKeyAdminToken is the session value holding the signed admin token.
	SessionKeyAdminToken = "admin_token"
)

// ErrAuthRequired is returned when an admin operation runs without an authenticated session.
var ErrAuthRequired = errors.New(errorMessageAuthRequired)

// SessionState is the authentication state of a client session.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticated
)

func (state SessionState) String() string {
	switch state {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Authenticator moves a session between the anonymous and authenticated states.
// Callers persist the session after Login and Logout.
type Authenticator struct {
	credentials Credentials
	tokens      *TokenIssuer
}

func NewAuthenticator(credentials Credentials, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		tokens:      tokens,
	}
}

// Login authenticates the session when username and password match the configured pair.
// A mismatch returns ErrInvalidCredentials and leaves the session untouched.
func (authenticator *Authenticator) Login(session *sessions.Session, username string, password string) error {
	if !authenticator.credentials.Matches(username, password) {
		return ErrInvalidCredentials
	}
	token, issueErr := authenticator.tokens.Issue(authenticator.credentials.Username())
	if issueErr != nil {
		return issueErr
	}
	session.Values[SessionKeyAdminToken] = token
	return nil
}

func (authenticator *Authenticator) Logout(session *sessions.Session) {
	delete(session.Values, SessionKeyAdminToken)
}

func (authenticator *Authenticator) State(session *sessions.Session) SessionState {
	if session == nil {
		return StateAnonymous
	}
	token, ok := session.Values[SessionKeyAdminToken].(string)
	if !ok || token == "" {
		return StateAnonymous
	}
	subject, verifyErr := authenticator.tokens.Verify(token)
	if verifyErr != nil || subject != authenticator.credentials.Username() {
		return StateAnonymous
	}
	return StateAuthenticated
}

func (authenticator *Authenticator) IsAuthenticated(session *sessions.Session) bool {
	return authenticator.State(session) == StateAuthenticated
}

// Require returns ErrAuthRequired unless the session is authenticated.
func (authenticator *Authenticator) Require(session *sessions.Session) error {
	if !authenticator.IsAuthenticated(session) {
		return ErrAuthRequired
	}
	return nil
}
