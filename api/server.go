/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Auth:       Bearer-token verification (open when no secret is set)

ROUTE GROUPS:
  /api/auth, /api/me                      Identity
  /api/organizations/*                    Tenancy + per-org resources
  /api/sections, /api/workers, ...        Direct-by-id mutations
  /api/scenarios/*                        Demo scenarios (dev only)

SEE ALSO:
  - handlers.go, catalog_handlers.go, payroll_handlers.go
  - auth.go: the bearer middleware
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the router's environment-dependent knobs.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	EnableDemo     bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
		AllowCredentials: true,
	}))
	r.Use(authMiddleware(cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Identity
		r.Post("/auth/sync", h.SyncUser)
		r.Get("/me", h.Me)

		// Organizations and per-org resources
		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", h.CreateOrganization)
			r.Post("/join", h.JoinOrganization)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", h.GetOrganization)
				r.Put("/", h.UpdateOrganization)
				r.Post("/invite-code", h.RegenerateInviteCode)
				r.Get("/users", h.ListUsers)

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", h.ListInvitations)
					r.Post("/", h.CreateInvitation)
				})

				r.Route("/sections", func(r chi.Router) {
					r.Get("/", h.ListSections)
					r.Post("/", h.CreateSection)
					r.Get("/{id}/summary", h.SectionStyleSummary)
				})

				r.Route("/workers", func(r chi.Router) {
					r.Get("/", h.ListWorkers)
					r.Post("/", h.CreateWorker)
				})

				r.Route("/styles", func(r chi.Router) {
					r.Get("/", h.ListStyles)
					r.Post("/", h.CreateStyle)
				})

				r.Route("/production", func(r chi.Router) {
					r.Get("/", h.ListProduction)
					r.Post("/", h.CreateProduction)
				})

				r.Route("/bonus-rules", func(r chi.Router) {
					r.Get("/", h.ListBonusRules)
					r.Post("/", h.CreateBonusRule)
				})

				r.Route("/payroll", func(r chi.Router) {
					r.Post("/", h.ComputePayroll)
					r.Post("/export", h.ExportPayroll)
				})
			})
		})

		// Direct-by-id mutations (ids are unique across organizations)
		r.Post("/users/{userID}/role", h.SetUserRole)
		r.Post("/invitations/accept", h.AcceptInvitation)

		r.Route("/sections/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateSection)
			r.Delete("/", h.DeleteSection)
		})
		r.Route("/workers/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateWorker)
			r.Delete("/", h.DeleteWorker)
		})
		r.Route("/styles/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateStyle)
			r.Delete("/", h.DeleteStyle)
			r.Get("/rates", h.ListStyleRates)
			r.Post("/rates", h.CreateStyleRate)
			r.Get("/current-rate", h.GetCurrentRate)
		})
		r.Route("/rates/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateStyleRate)
			r.Delete("/", h.DeleteStyleRate)
		})
		r.Route("/production/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateProduction)
			r.Delete("/", h.DeleteProduction)
		})
		r.Route("/bonus-rules/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateBonusRule)
			r.Delete("/", h.DeleteBonusRule)
			r.Post("/active", h.SetBonusRuleActive)
		})

		// Demo scenarios reset the database; production builds leave
		// them unrouted.
		if cfg.EnableDemo {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}
