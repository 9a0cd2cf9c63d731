package router

import (
	"net/http"

	"pricemind-sync-api/internal/handler"
	"pricemind-sync-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	ProductHandler *handler.ProductHandler
	ChannelHandler *handler.ChannelHandler
	ConfigHandler  *handler.ConfigHandler
	AdminHandler   *handler.AdminHandler
	MetricsHandler http.Handler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/api/v1/health", cfg.Handler.Health)
		r.Get("/api/v1/ready", cfg.Handler.Ready)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.ProductHandler != nil {
				r.Post("/products/price-events", cfg.ProductHandler.PriceEvent)
			}

			if cfg.ChannelHandler != nil {
				r.Route("/channels", func(r chi.Router) {
					r.Get("/", cfg.ChannelHandler.List)
					r.Put("/selected", cfg.ChannelHandler.Select)
					r.Get("/{channel_id}/product-domain", cfg.ChannelHandler.ProductDomain)
				})
			}

			if cfg.ConfigHandler != nil {
				r.Put("/config", cfg.ConfigHandler.Save)
			}

			if cfg.AdminHandler != nil {
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			}
		})
	})

	return r
}
