package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/handler"
	"go-storefront-admin/internal/metrics"
	"go-storefront-admin/internal/middleware"
)

type Handlers struct {
	Trash        *handler.TrashHandler
	Entity       *handler.EntityHandler
	Audit        *handler.AuditHandler
	Notification *handler.NotificationHandler
	Health       *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.WriteRateLimitRPM)

	r.Use(middleware.RequestLog)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.RequireAuth)

		// The stream hijacks the connection, so it stays outside the timeout.
		api.Get("/notifications/stream", h.Notification.Stream)

		api.Group(func(read chi.Router) {
			read.Use(middleware.Timeout(cfg.RequestTimeout))

			read.Get("/trash", h.Trash.List)
			read.Get("/entities", h.Entity.Types)
			read.Get("/entities/{type}", h.Entity.List)
			read.Get("/entities/{type}/{id}", h.Entity.Get)
			read.Get("/notifications", h.Notification.Latest)
			read.With(authMiddleware.RequireRoles("admin")).Get("/audit", h.Audit.List)
		})

		api.Group(func(write chi.Router) {
			write.Use(middleware.Timeout(cfg.RequestTimeout))
			write.Use(authMiddleware.RequireMutator)

			write.Post("/trash/visibility", h.Trash.Visibility)
			write.Post("/trash/restore", h.Trash.Restore)
			write.Post("/trash/purge", h.Trash.Purge)
			write.Post("/trash/retire", h.Trash.Retire)
			write.Post("/trash/sweep", h.Trash.Sweep)
			write.Put("/entities/{type}/{id}", h.Entity.Put)
			write.Delete("/entities/{type}/{id}", h.Entity.Delete)
		})
	})

	return r
}
