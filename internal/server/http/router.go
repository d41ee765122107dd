// Package http exposes the user API over HTTP. Requests pass through an
// ordered middleware chain: request id, logging, recovery, CORS and then the
// authentication gate for everything except logout.
package http

import (
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter builds the HTTP handler. Logout is mounted outside the gate so
// that an already revoked token can still be logged out.
func NewRouter(h *Handler, gate *services.Gate, allowedOrigins []string, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	co := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{common.AuthorizationHeaderName, "Content-Type"},
	})

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(co.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	})

	r.Route("/user", func(r chi.Router) {
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(gate, log))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)
				r.Get("/me", h.Me)
				r.Put("/me", h.UpdateMe)
				r.Delete("/me", h.DeleteMe)
			})
		})
	})

	r.Route("/task", func(r chi.Router) {
		r.Use(Authenticate(gate, log))
		r.Use(RequireAuth)
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})

	return r
}
