package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/history"
	"github.com/windfall/windfall/internal/tables"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "login", "error", "lobby", "table", "reports", "school", "settings",
}

var templateFuncs = template.FuncMap{
	"chips":     FormatChips,
	"chipTier":  ChipTier,
	"lowChips":  LowChips,
	"signed":    FormatSigned,
	"percent":   FormatPercent,
	"plural":    plural,
	"lower":     strings.ToLower,
	"resultMsg": ResultBanner,
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

// page is the data shared by every template
type page struct {
	Title string
	User  *auth.User
	Chips int
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.logger.Error("Failed to render page", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w) // Ignore write errors once headers are sent
}

func (s *Server) userPage(r *http.Request, title string) page {
	p := page{Title: title}
	if sess := sessionFrom(r.Context()); sess != nil {
		user := sess.User
		p.User = &user
		p.Chips = sess.Chips()
	}
	return p
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "home", s.userPage(r, "Windfall BlackJack"))
}

type loginPage struct {
	page
	Message string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login", loginPage{
		page:    page{Title: "Log in"},
		Message: r.URL.Query().Get("message"),
	})
}

// handleLogin serves both buttons of the login form; action=signup creates
// the account first.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectError(w, r, "Invalid form submission", "")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	signup := r.PostForm.Get("action") == "signup"

	var (
		result *auth.Session
		err    error
	)
	if signup {
		result, err = s.auth.SignUp(r.Context(), email, password)
	} else {
		result, err = s.auth.SignIn(r.Context(), email, password)
	}
	if err != nil {
		s.logger.Info("Login failed", "email", email, "signup", signup, "error", err)
		redirectError(w, r, authErrorMessage(err), "")
		return
	}

	if result.NeedsConfirmation() {
		q := url.Values{"message": {"Check your email to confirm your account"}}
		http.Redirect(w, r, "/login?"+q.Encode(), http.StatusSeeOther)
		return
	}

	sess := s.sessions.Create(result.AccessToken, result.User)
	s.setSessionCookie(w, sess)
	s.logger.Info("Player signed in", "user", result.User.Email, "signup", signup)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid login credentials"
	case errors.Is(err, auth.ErrUnavailable):
		return "Authentication service unavailable"
	default:
		return "Authentication failed"
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if sess != nil {
		s.sessions.Delete(sess.ID)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if err := s.auth.SignOut(ctx, sess.Token); err != nil {
			s.logger.Warn("Sign out failed", "user", sess.User.Email, "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type errorPage struct {
	page
	Error       string
	Description string
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.render(w, http.StatusOK, "error", errorPage{
		page:        page{Title: "Authentication Error"},
		Error:       q.Get("error"),
		Description: q.Get("error_description"),
	})
}

func (s *Server) handleSchool(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "school", page{Title: "BlackJack School"})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "settings", s.userPage(r, "Settings"))
}

type lobbyPage struct {
	page
	Tables []tables.TableConfig
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "lobby", lobbyPage{
		page:   s.userPage(r, "Casino"),
		Tables: s.registry.All(),
	})
}

type reportsPage struct {
	page
	Enabled bool
	Summary history.Summary
	Recent  []history.Hand
	Names   map[string]string
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	data := reportsPage{
		page:  s.userPage(r, "Reports"),
		Names: make(map[string]string),
	}
	for _, cfg := range s.registry.All() {
		data.Names[cfg.ID] = cfg.Name
	}

	if s.history != nil && data.User != nil {
		data.Enabled = true

		var err error
		if data.Summary, err = s.history.Summarize(r.Context(), data.User.ID); err != nil {
			s.logger.Error("Failed to summarise history", "user", data.User.Email, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if data.Recent, err = s.history.Recent(r.Context(), data.User.ID, 20); err != nil {
			s.logger.Error("Failed to load recent hands", "user", data.User.Email, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	s.render(w, http.StatusOK, "reports", data)
}
