package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DevAuthenticator accepts any non-empty email and password and issues opaque
// local tokens (dev mode). Users are keyed by lower-cased email so signing in
// twice yields the same user id.
type DevAuthenticator struct {
	mu     sync.Mutex
	users  map[string]User
	tokens map[string]User
}

// NewDevAuthenticator creates an in-memory authenticator.
func NewDevAuthenticator() *DevAuthenticator {
	return &DevAuthenticator{
		users:  make(map[string]User),
		tokens: make(map[string]User),
	}
}

func (a *DevAuthenticator) CurrentUser(ctx context.Context, token string) (*User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	user, ok := a.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

func (a *DevAuthenticator) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	user, ok := a.users[email]
	if !ok {
		user = User{ID: uuid.NewString(), Email: email}
		a.users[email] = user
	}

	token := uuid.NewString()
	a.tokens[token] = user
	return &Session{AccessToken: token, User: user}, nil
}

// SignUp behaves like SignIn; dev mode never asks for email confirmation.
func (a *DevAuthenticator) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return a.SignIn(ctx, email, password)
}

func (a *DevAuthenticator) SignOut(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.tokens, token)
	return nil
}
