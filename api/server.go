package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
)

// NewServer wires the router and returns an http.Server ready to listen.
func NewServer(cfg config.ServerConfig, handlers *Handlers, logger *internal.Logger) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(handlers, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// NewRouter assembles the route tree. Everything under the API requires a
// user identity header; health does not.
func NewRouter(handlers *Handlers, logger *internal.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/logs", func(r chi.Router) {
			r.Post("/upsert", handlers.UpsertLog)
			r.Get("/history", handlers.History)
			r.Get("/export", handlers.ExportHistory)
			r.Get("/{date}", handlers.LogByDate)
			r.Delete("/", handlers.EraseLogs)
		})

		r.Put("/responses/{id}", handlers.UpdateResponse)

		r.Route("/insights", func(r chi.Router) {
			r.Get("/", handlers.Insights)
			r.Get("/digest", handlers.InsightDigest)
		})

		r.Get("/energy-efficiency", handlers.EnergyEfficiency)
		r.Get("/baselines", handlers.Baselines)
	})

	return r
}
