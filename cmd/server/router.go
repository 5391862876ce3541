package main

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/config"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/handlers"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/metrics"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/middleware"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/nutrition"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/repository"
	"github.com/Lixing-Zhang/dog-diet/backend/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// stores are the catalog collaborators selected from configuration
type stores struct {
	ingredients repository.IngredientRepository
	fixed       repository.FixedIngredientRepository
	checks      map[string]handlers.HealthCheck
}

// newRouter wires services and handlers onto a chi router.
// m may be nil when metrics are disabled.
func newRouter(cfg *config.Config, st stores, m *metrics.Metrics, log *slog.Logger) http.Handler {
	// Initialize services
	dietService := service.NewDietService(
		st.ingredients,
		st.fixed,
		cfg.Rules,
		nutrition.ResolveOptions{
			Timeout:       cfg.Catalog.LookupTimeout,
			MaxConcurrent: cfg.Catalog.MaxConcurrentLookups,
		},
		m,
		log,
	)
	catalogService := service.NewCatalogService(st.ingredients, st.fixed, m, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(st.checks, log)
	dietHandler := handlers.NewDietHandler(dietService, log)
	ingredientHandler := handlers.NewIngredientHandler(catalogService, log)
	adminHandler := handlers.NewAdminHandler(catalogService, cfg.Catalog.MaxUploadBytes, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}
	r.Use(chimiddleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ingredients", ingredientHandler.ListGrouped)
		r.Get("/ingredients/{name}", ingredientHandler.Get)
		r.Get("/fixed-ingredients", ingredientHandler.ListFixed)

		r.Post("/diet/calculate", dietHandler.Calculate)
		r.Post("/diet/export", dietHandler.Export)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))
			r.Post("/catalog/import", adminHandler.ImportCatalog)
		})
	})

	return r
}
