package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/session"
	"github.com/windfall/windfall/internal/tables"
)

const sessionCookie = "windfall_session"

type contextKey int

const (
	sessionKey contextKey = iota
	tableKey
)

// requireUser resolves the session cookie and re-checks the access token
// with the identity provider. Anonymous visitors are sent to /login.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, err := s.sessions.Get(cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if _, err := s.auth.CurrentUser(r.Context(), sess.Token); err != nil {
			if errors.Is(err, auth.ErrUnavailable) {
				s.logger.Warn("Identity provider unavailable", "error", err)
				redirectError(w, r, "Authentication service unavailable", "Please try again in a moment.")
				return
			}
			s.logger.Info("Session token rejected", "user", sess.User.Email, "error", err)
			s.sessions.Delete(sess.ID)
			s.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireTable resolves {tableId}; unknown tables go back to the lobby
func (s *Server) requireTable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.registry.Lookup(chi.URLParam(r, "tableId"))
		if err != nil {
			http.Redirect(w, r, "/casino", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), tableKey, cfg)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

func tableFrom(ctx context.Context) tables.TableConfig {
	cfg, _ := ctx.Value(tableKey).(tables.TableConfig)
	return cfg
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirectError sends the browser to the error page
func redirectError(w http.ResponseWriter, r *http.Request, msg, description string) {
	q := url.Values{}
	q.Set("error", msg)
	if description != "" {
		q.Set("error_description", description)
	}
	http.Redirect(w, r, "/error?"+q.Encode(), http.StatusSeeOther)
}
