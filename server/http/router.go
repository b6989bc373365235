package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"material-recon/internal/config"
	"material-recon/internal/middleware"
	recHnd "material-recon/internal/reconcile/handler"
	"material-recon/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) << 20))

	// health-check
	r.Get("/health", handlers.Health)

	r.Route("/reconcile", func(r chi.Router) {
		r.Post("/", recHnd.Reconcile(cfg, logger))          // две таблицы multipart
		r.Post("/items", recHnd.ReconcileItems(cfg, logger)) // готовые позиции JSON
	})

	return r
}
