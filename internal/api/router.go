package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"factuboard/internal/config"
	"factuboard/internal/middleware"
)

// NewRouter assembles the chi router with the standard middleware chain:
// request IDs, panic recovery, CORS, rate limiting, then auth.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth([]byte(cfg.JWTSecret)))

		r.Get("/modules", h.ListModules)
		r.Route("/modules/{module}", func(r chi.Router) {
			r.Get("/", h.GetModule)
			r.Post("/ingest", h.IngestModule)
			r.Post("/query", h.QueryModule)
			r.Post("/metrics", h.ModuleMetrics)
		})

		r.Get("/roster", h.GetRoster)
		r.Put("/roster", h.PutRoster)

		r.Get("/audit", h.ListAudit)
	})

	return r
}
