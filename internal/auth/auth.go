// Package auth provides the identity provider used to sign players in.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidToken indicates the access token is definitively invalid or expired.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUnavailable indicates the identity provider is unreachable or unavailable.
	// Callers may choose to fail open (allow) or fail closed (reject).
	ErrUnavailable = errors.New("auth: unavailable")
)

// User is an authenticated player
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a sign in. AccessToken is empty when the provider
// still wants the email address confirmed.
type Session struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        User
}

// NeedsConfirmation reports a sign up that did not produce a usable session
func (s *Session) NeedsConfirmation() bool {
	return s.AccessToken == ""
}

// Authenticator signs players in and resolves access tokens to users.
type Authenticator interface {
	// CurrentUser resolves a token.
	// Returns:
	//   - (*User, nil) if token is valid
	//   - (nil, ErrInvalidToken) if token is definitively invalid
	//   - (nil, ErrUnavailable) if the provider is unavailable
	CurrentUser(ctx context.Context, token string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// HTTPAuthenticator talks to a GoTrue compatible REST API (as hosted by Supabase).
type HTTPAuthenticator struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPAuthenticator creates an authenticator for the provider at baseURL.
func NewHTTPAuthenticator(baseURL, apiKey string, timeout time.Duration) *HTTPAuthenticator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPAuthenticator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`

	// Sign up without auto-confirm returns the bare user object
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r tokenResponse) session() *Session {
	s := &Session{
		AccessToken: r.AccessToken,
		ExpiresIn:   time.Duration(r.ExpiresIn) * time.Second,
	}
	if r.User != nil {
		s.User = *r.User
	} else {
		s.User = User{ID: r.ID, Email: r.Email}
	}
	return s
}

func (a *HTTPAuthenticator) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user User
	if err := a.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user, ErrInvalidToken); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

func (a *HTTPAuthenticator) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var resp tokenResponse
	path := "/auth/v1/token?" + url.Values{"grant_type": {"password"}}.Encode()
	if err := a.do(ctx, http.MethodPost, path, "", credentials{email, password}, &resp, ErrInvalidCredentials); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrInvalidCredentials
	}
	return resp.session(), nil
}

func (a *HTTPAuthenticator) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var resp tokenResponse
	if err := a.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &resp, ErrInvalidCredentials); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

func (a *HTTPAuthenticator) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil, ErrInvalidToken)
}

// do performs one provider request. Client errors map to rejected, anything
// the provider cannot answer maps to ErrUnavailable.
func (a *HTTPAuthenticator) do(ctx context.Context, method, path, token string, body, out any, rejected error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		// Network errors, timeouts, etc. = unavailable
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", rejected, providerMessage(resp.Body, resp.StatusCode))
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	// Limit response body to 1MB to avoid pathological responses
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	return nil
}

// providerMessage extracts the human readable reason from a GoTrue error body
func providerMessage(body io.Reader, status int) string {
	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&e)

	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return fmt.Sprintf("status %d", status)
}
