/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack, and the route tree.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/clients/*    Client registry
  /api/accounts/*   Account registry
  /api/movements/*  Movement Engine
  /api/reports/*    Statement reports
  /healthz          Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured. allowedOrigins
// feeds the CORS middleware; use ["*"] for development.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/code/{code}", h.GetClientByCode)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeactivateClient)
			r.Post("/{id}/status", h.ToggleClientStatus)
			r.Get("/{id}/accounts", h.ListClientAccounts)
			r.Get("/{id}/balance", h.GetClientBalance)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/number/{number}", h.GetAccountByNumber)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeactivateAccount)
			r.Post("/{id}/status", h.ToggleAccountStatus)
			r.Get("/{id}/balance", h.GetAccountBalance)
			r.Get("/{id}/movements", h.ListAccountMovements)
			r.Get("/{id}/debits", h.ListAccountDebits)
			r.Get("/{id}/credits", h.ListAccountCredits)
			r.Get("/{id}/last", h.GetLastMovement)
		})

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", h.ListMovements)
			r.Post("/", h.CreateMovement)
			r.Get("/{id}", h.GetMovement)
			r.Put("/{id}", h.UpdateMovement)
			r.Delete("/{id}", h.DeleteMovement)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/statement", h.GetStatement)
		})
	})

	return r
}
