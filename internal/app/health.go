package app

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/airtrack/airtrack/internal/platform/httpx"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness reports whether the backing services answer.
type Readiness struct {
	checks  map[string]func(context.Context) error
	timeout time.Duration
	logger  *slog.Logger
}

// NewReadiness builds readiness checks for Postgres and Redis. Nil
// dependencies are skipped.
func NewReadiness(db Pinger, rdb redis.UniversalClient, logger *slog.Logger) *Readiness {
	if logger == nil {
		logger = slog.Default()
	}
	checks := make(map[string]func(context.Context) error)
	if db != nil {
		checks["postgres"] = db.Ping
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return &Readiness{checks: checks, timeout: 2 * time.Second, logger: logger}
}

type readinessReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServeHTTP answers 200 when every check passes, 503 otherwise.
func (h *Readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := readinessReport{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
			report.Status = "unavailable"
			report.Checks[name] = "down"
			continue
		}
		report.Checks[name] = "up"
	}
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httpx.JSON(w, status, report)
}

func liveness(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
