package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/history"
	"github.com/windfall/windfall/internal/session"
	"github.com/windfall/windfall/internal/tables"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// stacked deals cards in order on every shoe built from it
func stacked(cards string) blackjack.ShoeSource {
	parsed := deck.MustParseCards(cards)
	return func(int) *deck.Deck { return deck.NewStacked(parsed...) }
}

type testEnv struct {
	srv      *Server
	auth     *auth.DevAuthenticator
	sessions *session.Store
	history  *history.Store
}

type envOption func(*Config)

func withShoe(cards string) envOption {
	return func(c *Config) { c.ShoeSource = stacked(cards) }
}

func withHistory(t *testing.T) envOption {
	return func(c *Config) {
		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		c.History = store
	}
}

func withAuth(a auth.Authenticator) envOption {
	return func(c *Config) { c.Auth = a }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	clock := quartz.NewMock(t)
	dev := auth.NewDevAuthenticator()
	cfg := Config{
		Registry: tables.Default(),
		Auth:     dev,
		Sessions: session.NewStore(clock, time.Hour, 1000, testLogger()),
		Clock:    clock,
		Logger:   testLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	return &testEnv{srv: srv, auth: dev, sessions: cfg.Sessions, history: cfg.History}
}

// login signs ada in directly and returns her session cookie
func (e *testEnv) login(t *testing.T) (*session.Session, *http.Cookie) {
	t.Helper()
	res, err := e.auth.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	sess := e.sessions.Create(res.AccessToken, res.User)
	return sess, &http.Cookie{Name: sessionCookie, Value: sess.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, form url.Values, cookie *http.Cookie, jsonClient bool) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if jsonClient {
		req.Header.Set("Accept", "application/json")
	}

	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Registry: tables.Default()})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Status string `json:"status"`
		Tables int    `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.Tables)
}

func TestAnonymousVisitorsAreSentToLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/casino", "/casino/table/rookie", "/reports", "/settings"} {
		t.Run(path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, nil, nil, false)
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/login", w.Header().Get("Location"))
		})
	}
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want string
	}{
		{"/login", "Sign up"},
		{"/login?message=Check+your+email", "Check your email"},
		{"/school", "Basic strategy"},
		{"/error?error=Nope&error_description=Try+again", "Try again"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil, nil, false)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"ada@example.com"}, "password": {"secret"}, "action": {"signup"}}
	w := env.do(t, http.MethodPost, "/login", form, nil, false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, env.sessions.Len())

	w = env.do(t, http.MethodGet, "/", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "$1.0K")
	assert.Contains(t, body, `href="/casino"`)
}

func TestLoginFailureShowsError(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"ada@example.com"}, "password": {""}, "action": {"login"}}
	w := env.do(t, http.MethodPost, "/login", form, nil, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/error", loc.Path)
	assert.Equal(t, "Invalid login credentials", loc.Query().Get("error"))
	assert.Zero(t, env.sessions.Len())

	w = env.do(t, http.MethodGet, loc.String(), nil, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid login credentials")
	assert.Contains(t, w.Body.String(), "Back to Login")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	sess, cookie := env.login(t)

	w := env.do(t, http.MethodPost, "/logout", nil, cookie, false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Zero(t, env.sessions.Len())

	_, err := env.auth.CurrentUser(context.Background(), sess.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	w = env.do(t, http.MethodGet, "/", nil, cookie, false)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRevokedTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)
	sess, cookie := env.login(t)
	require.NoError(t, env.auth.SignOut(context.Background(), sess.Token))

	w := env.do(t, http.MethodGet, "/", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Zero(t, env.sessions.Len())
}

// unavailableAuth accepts sign ins but cannot verify tokens
type unavailableAuth struct {
	*auth.DevAuthenticator
}

func (unavailableAuth) CurrentUser(context.Context, string) (*auth.User, error) {
	return nil, auth.ErrUnavailable
}

func TestUnavailableProviderKeepsSession(t *testing.T) {
	env := newTestEnv(t, withAuth(unavailableAuth{auth.NewDevAuthenticator()}))
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/", nil, cookie, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/error", loc.Path)
	assert.Equal(t, "Authentication service unavailable", loc.Query().Get("error"))
	assert.Equal(t, 1, env.sessions.Len())
}

func TestLobbyListsTables(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/casino", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, cfg := range tables.Default().All() {
		assert.Contains(t, body, cfg.Name)
		assert.Contains(t, body, `href="/casino/table/`+cfg.ID+`"`)
	}
	assert.Contains(t, body, "Join Table")
	assert.Contains(t, body, "Blackjack pays 3:2")
}

func TestUnknownTableRedirectsToLobby(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/casino/table/poker-night", nil, cookie, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/casino", w.Header().Get("Location"))
}

func TestTableFormFlow(t *testing.T) {
	// Player 20 against dealer 16; the dealer draws a ten and busts.
	env := newTestEnv(t, withShoe("Kh 9c Qd 7s Th"))
	sess, cookie := env.login(t)
	const table = "/casino/table/rookie"

	w := env.do(t, http.MethodGet, table, nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Place your bet")
	assert.Contains(t, w.Body.String(), "Rookie Table")

	w = env.do(t, http.MethodPost, table+"/bet", url.Values{"amount": {"5"}}, cookie, false)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, table, w.Header().Get("Location"))
	assert.Equal(t, 995, sess.Chips())

	w = env.do(t, http.MethodGet, table, nil, cookie, false)
	body := w.Body.String()
	assert.Contains(t, body, table+"/hit")
	assert.Contains(t, body, table+"/stand")
	assert.Contains(t, body, "Dealer (?)")
	assert.Contains(t, body, "??")

	w = env.do(t, http.MethodPost, table+"/stand", nil, cookie, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = env.do(t, http.MethodGet, table, nil, cookie, false)
	body = w.Body.String()
	assert.Contains(t, body, "You Win!")
	assert.Contains(t, body, "Dealer (26)")
	assert.Contains(t, body, table+"/new")
	assert.Equal(t, 1005, sess.Chips())
}

func TestTableFormRejectionShowsError(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)
	const table = "/casino/table/rookie"

	w := env.do(t, http.MethodPost, table+"/bet", url.Values{"amount": {"500"}}, cookie, false)
	require.Equal(t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, table, loc.Path)
	require.NotEmpty(t, loc.Query().Get("error"))

	w = env.do(t, http.MethodGet, loc.String(), nil, cookie, false)
	assert.Contains(t, w.Body.String(), `class="error"`)
}

func TestTableStateJSON(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/casino/table/high-roller/state", nil, cookie, true)
	require.Equal(t, http.StatusOK, w.Code)

	var view blackjack.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, blackjack.Betting, view.Phase)
	assert.Equal(t, 1000, view.Chips)
	assert.Equal(t, []blackjack.Action{blackjack.ActionBet}, view.Actions)
}

func TestTableActionJSON(t *testing.T) {
	env := newTestEnv(t, withShoe("Kh 9c Qd 7s Th"))
	_, cookie := env.login(t)

	w := env.do(t, http.MethodPost, "/casino/table/rookie/bet", url.Values{"amount": {"10"}}, cookie, true)
	require.Equal(t, http.StatusOK, w.Code)

	var view blackjack.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, blackjack.Playing, view.Phase)
	assert.Equal(t, 10, view.Bet)
	assert.Equal(t, 990, view.Chips)
	assert.Equal(t, 20, view.PlayerTotal)
	assert.Equal(t, 9, view.DealerTotal)
	require.Len(t, view.DealerCards, 2)
	assert.True(t, view.DealerCards[1].Hidden)
	assert.Empty(t, view.DealerCards[1].Rank)
}

func TestTableActionErrorsJSON(t *testing.T) {
	tests := []struct {
		name   string
		shoe   string
		path   string
		form   url.Values
		status int
		code   string
		reason string
	}{
		{"below minimum", "", "/bet", url.Values{"amount": {"1"}}, http.StatusUnprocessableEntity, "invalid_bet", "below-minimum"},
		{"above maximum", "", "/bet", url.Values{"amount": {"51"}}, http.StatusUnprocessableEntity, "invalid_bet", "above-maximum"},
		{"not a number", "", "/bet", url.Values{"amount": {"lots"}}, http.StatusBadRequest, "invalid_amount", ""},
		{"hit before betting", "", "/hit", nil, http.StatusConflict, "invalid_phase", ""},
		{"new hand before betting", "", "/new", nil, http.StatusConflict, "invalid_phase", ""},
		{"shoe runs out", "Kh 9c", "/bet", url.Values{"amount": {"5"}}, http.StatusConflict, "empty_deck", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []envOption
			if tt.shoe != "" {
				opts = append(opts, withShoe(tt.shoe))
			}
			env := newTestEnv(t, opts...)
			sess, cookie := env.login(t)

			w := env.do(t, http.MethodPost, "/casino/table/rookie"+tt.path, tt.form, cookie, true)
			require.Equal(t, tt.status, w.Code)

			var body struct {
				Error ErrorData       `json:"error"`
				View  *blackjack.View `json:"view"`
				Code  string          `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			code := body.Error.Code
			if code == "" {
				code = body.Code
			}
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.reason, body.Error.Reason)
			assert.Equal(t, 1000, sess.Chips())
		})
	}
}

func TestEmptyShoeVoidsHandJSON(t *testing.T) {
	env := newTestEnv(t, withShoe("Kh 9c"))
	_, cookie := env.login(t)

	w := env.do(t, http.MethodPost, "/casino/table/rookie/bet", url.Values{"amount": {"5"}}, cookie, true)
	require.Equal(t, http.StatusConflict, w.Code)

	var body actionError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, blackjack.GameOver, body.View.Phase)
	assert.Equal(t, blackjack.ResultVoid, body.View.Result)
	assert.Equal(t, 1000, body.View.Chips)
}

func TestReportsWithHistory(t *testing.T) {
	env := newTestEnv(t, withShoe("Kh 9c Qd 7s Th"), withHistory(t))
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/reports", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No hands played yet")

	env.do(t, http.MethodPost, "/casino/table/rookie/bet", url.Values{"amount": {"5"}}, cookie, false)
	env.do(t, http.MethodPost, "/casino/table/rookie/stand", nil, cookie, false)

	w = env.do(t, http.MethodGet, "/reports", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Rookie Table")
	assert.Contains(t, body, "+5")
	assert.Contains(t, body, "100%")
	assert.Contains(t, body, "win")
}

func TestReportsWithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/reports", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hand history is disabled")
}

func TestChipsFollowPlayerBetweenTables(t *testing.T) {
	env := newTestEnv(t, withShoe("Kh 9c Qd 7s Th"))
	sess, cookie := env.login(t)

	env.do(t, http.MethodPost, "/casino/table/rookie/bet", url.Values{"amount": {"5"}}, cookie, false)
	env.do(t, http.MethodPost, "/casino/table/rookie/stand", nil, cookie, false)
	require.Equal(t, 1005, sess.Chips())

	w := env.do(t, http.MethodGet, "/casino/table/high-roller/state", nil, cookie, true)
	require.Equal(t, http.StatusOK, w.Code)

	var view blackjack.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1005, view.Chips)
	assert.Equal(t, "high-roller", sess.TableID())
}

func TestSettingsPage(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/settings", nil, cookie, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Signed in as ada@example.com")
}

// waitHealthy polls /health until it answers 200 or ctx is done
func waitHealthy(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resp, err := client.Get(baseURL + "/health")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.ListenAndServe(ctx, addr) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, waitHealthy(waitCtx, "http://"+addr))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
