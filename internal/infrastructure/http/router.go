package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	HealthHandler     *handlers.HealthHandler
	ProfileHandler    *handlers.ProfileHandler
	UsersHandler      *handlers.UsersHandler
	AccountsHandler   *handlers.AccountsHandler
	ProjectsHandler   *handlers.ProjectsHandler
	TimesheetsHandler *handlers.TimesheetsHandler
	ReportsHandler    *handlers.ReportsHandler
	RequireJWT        func(http.Handler) http.Handler // bearer auth for everything but /auth and /health
	Log               zerolog.Logger
	Secure            func(http.Handler) http.Handler
	CORS              func(http.Handler) http.Handler
	IPRateLimit       func(http.Handler) http.Handler
	UserRateLimit     func(http.Handler) http.Handler
	Metrics           bool   // expose /metrics
	APIVersion        string // X-API-Version header when set
	Clock             clock.Clock
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	if cfg.Clock != nil {
		r.Use(middleware.Clock(cfg.Clock))
	}
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.APIVersion != "" {
		r.Use(chimid.SetHeader("X-API-Version", cfg.APIVersion))
	}
	r.Use(chimid.AllowContentType("application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteStatus(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.With(cfg.RequireJWT).Get("/me", cfg.AuthHandler.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(cfg.RequireJWT)
		if cfg.UserRateLimit != nil {
			r.Use(cfg.UserRateLimit)
		}

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", cfg.ProfileHandler.Get)
			r.Put("/", cfg.ProfileHandler.Update)
			r.Patch("/", cfg.ProfileHandler.Update)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", cfg.AccountsHandler.List)
			r.Post("/", cfg.AccountsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountsHandler.Get)
				r.Put("/", cfg.AccountsHandler.Update)
				r.Patch("/", cfg.AccountsHandler.Update)
				r.Delete("/", cfg.AccountsHandler.Delete)
				r.Route("/projects", func(r chi.Router) {
					r.Get("/", cfg.AccountsHandler.ListProjects)
					r.Post("/", cfg.AccountsHandler.CreateProject)
					r.Get("/{project_id}", cfg.AccountsHandler.GetProject)
					r.Put("/{project_id}", cfg.AccountsHandler.UpdateProject)
					r.Patch("/{project_id}", cfg.AccountsHandler.UpdateProject)
					r.Delete("/{project_id}", cfg.AccountsHandler.DeleteProject)
				})
			})
		})

		// Membership-scoped reads are checked by the services.
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", cfg.ProjectsHandler.List)
			r.With(middleware.RequireAdmin).Post("/", cfg.ProjectsHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.ProjectsHandler.Get)
				r.With(middleware.RequireAdmin).Put("/", cfg.ProjectsHandler.Update)
				r.With(middleware.RequireAdmin).Patch("/", cfg.ProjectsHandler.Update)
				r.With(middleware.RequireAdmin).Delete("/", cfg.ProjectsHandler.Delete)
				r.Get("/members", cfg.ProjectsHandler.ListMembers)
				r.With(middleware.RequireAdmin).Post("/members", cfg.ProjectsHandler.AddMember)
				r.With(middleware.RequireAdmin).Delete("/members/{user_id}", cfg.ProjectsHandler.RemoveMember)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", cfg.UsersHandler.List)
			r.Post("/", cfg.UsersHandler.Create)
			r.Get("/{id}", cfg.UsersHandler.Get)
			r.Put("/{id}", cfg.UsersHandler.Update)
			r.Patch("/{id}", cfg.UsersHandler.Update)
			r.Delete("/{id}", cfg.UsersHandler.Delete)
		})

		r.Route("/timesheets", func(r chi.Router) {
			h := cfg.TimesheetsHandler
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Put("/", h.Update)
				r.Patch("/", h.Update)
				r.Delete("/", h.Delete)
				r.Post("/submit", h.Submit)
				r.Post("/approve", h.Approve)
				r.Post("/reject", h.Reject)
				r.Route("/items", func(r chi.Router) {
					r.Get("/", h.ListItems)
					r.Post("/", h.CreateItem)
					r.Get("/{item_id}", h.GetItem)
					r.Put("/{item_id}", h.UpdateItem)
					r.Patch("/{item_id}", h.UpdateItem)
					r.Delete("/{item_id}", h.DeleteItem)
				})
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/user-hours", cfg.ReportsHandler.UserHours)
			r.Get("/project-hours/{id}", cfg.ReportsHandler.ProjectHours)
			r.Get("/user/{id}/projects", cfg.ReportsHandler.UserProjects)
			r.Get("/summary", cfg.ReportsHandler.Summary)
		})
	})

	return r
}
