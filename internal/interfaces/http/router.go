package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	// Handlers
	TaskHandler     *handlers.TaskHandler
	AssetHandler    *handlers.AssetHandler
	AccrualHandler  *handlers.AccrualHandler
	CalendarHandler *handlers.CalendarHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	User        middleware.UserConfig
	SubmitGuard middleware.SubmitGuard
	Logging     middleware.LoggingConfig

	// Infrastructure
	Logger         logging.Logger
	HTTPObserver   middleware.HTTPObserver
	MetricsHandler http.Handler
}

// NewRouter constructs the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging, cfg.HTTPObserver))

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.NewUserMiddleware(cfg.User, cfg.Logger))

		registerTaskRoutes(api, cfg.TaskHandler, middleware.NewIdempotencyMiddleware(cfg.SubmitGuard, cfg.Logger))
		registerAssetRoutes(api, cfg.AssetHandler)
		registerAccrualRoutes(api, cfg.AccrualHandler)
		registerCalendarRoutes(api, cfg.CalendarHandler)
	})

	return r
}

// registerTaskRoutes mounts /tasks. Only submission is guarded by the
// idempotency key.
func registerTaskRoutes(r chi.Router, h *handlers.TaskHandler, guard func(http.Handler) http.Handler) {
	if h == nil {
		return
	}
	r.Route("/tasks", func(tr chi.Router) {
		tr.With(guard).Post("/", h.Submit)
		tr.Get("/", h.List)

		tr.Route("/{taskID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Patch("/status", h.ChangeStatus)
			item.Put("/assignee", h.Assign)
			item.Post("/complete", h.Complete)
			item.Post("/documents", h.AttachDocument)
			item.Delete("/documents/{docID}", h.DetachDocument)
		})
	})
}

func registerAssetRoutes(r chi.Router, h *handlers.AssetHandler) {
	if h == nil {
		return
	}
	r.Get("/assets/search", h.Search)
}

func registerAccrualRoutes(r chi.Router, h *handlers.AccrualHandler) {
	if h == nil {
		return
	}
	r.Route("/accruals", func(ar chi.Router) {
		ar.Get("/", h.List)
		ar.Post("/preview", h.Preview)
		ar.Get("/export", h.Export)

		ar.Route("/{accrualID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Patch("/status", h.UpdateStatus)
		})
	})
}

func registerCalendarRoutes(r chi.Router, h *handlers.CalendarHandler) {
	if h == nil {
		return
	}
	r.Post("/calendar/due-dates", h.DueDates)
}

//Personal.AI order the ending
