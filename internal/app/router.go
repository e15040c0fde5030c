package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/airtrack/airtrack/internal/airquality"
	"github.com/airtrack/airtrack/internal/auth"
	"github.com/airtrack/airtrack/internal/cities"
	"github.com/airtrack/airtrack/internal/observability"
	"github.com/airtrack/airtrack/internal/platform/httpx"
	"github.com/airtrack/airtrack/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	AuthMiddleware    auth.Middleware
	CitiesHandler     *cities.Handler
	AirQualityHandler *airquality.Handler
	JobHandler        *jobs.Handler
	Readiness         *Readiness
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with AirTrack defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "Method not allowed")
	})

	r.Get("/healthz", liveness)
	if params.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", params.Readiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.AirQualityHandler != nil {
			r.Route("/aqi", params.AirQualityHandler.MountRoutes)
		}
		r.Route("/user", func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireBearer)
			params.AuthHandler.MountProfileRoutes(r)
			r.Route("/cities", params.CitiesHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
