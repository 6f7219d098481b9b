package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/windfall/windfall/internal/blackjack"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	// Public pages
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/school", s.handleSchool)
	r.Get("/error", s.handleError)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/", s.handleHome)
		r.Post("/logout", s.handleLogout)
		r.Get("/reports", s.handleReports)
		r.Get("/settings", s.handleSettings)

		r.Route("/casino", func(r chi.Router) {
			r.Get("/", s.handleLobby)

			r.Route("/table/{tableId}", func(r chi.Router) {
				r.Use(s.requireTable)

				r.Get("/", s.handleTable)
				r.Get("/state", s.handleTableState)
				r.Post("/bet", s.handleTableAction(blackjack.ActionBet))
				r.Post("/hit", s.handleTableAction(blackjack.ActionHit))
				r.Post("/stand", s.handleTableAction(blackjack.ActionStand))
				r.Post("/new", s.handleTableAction(blackjack.ActionNewHand))
				r.Get("/ws", s.handleTableSocket)
			})
		})
	})

	return r
}

// logRequests logs each request once it completes
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tables": s.registry.Len(),
	})
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Ignore write errors once headers are sent
}
