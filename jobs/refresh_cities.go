package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/airtrack/airtrack/internal/cities"
	jobmetrics "github.com/airtrack/airtrack/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher re-resolves all saved cities.
type Refresher interface {
	RefreshAll(ctx context.Context) (cities.RefreshResult, error)
}

// RefreshCitiesJob runs the saved-city AQI refresh.
type RefreshCitiesJob struct {
	Cities  Refresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRefreshCitiesJob wires dependencies for the refresh handler.
func NewRefreshCitiesJob(refresher Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshCitiesJob {
	return &RefreshCitiesJob{
		Cities:  refresher,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskCitiesRefresh tasks.
func (j *RefreshCitiesJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cities == nil {
		return errors.New("cities refresh: handler not configured")
	}
	var payload CitiesRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}

	tracker := j.metrics().Track(TaskCitiesRefresh)
	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	start := j.now()
	logger.Info("starting saved city refresh")

	res, err := j.Cities.RefreshAll(ctx)
	j.metrics().AddRefreshed("updated", res.Updated)
	j.metrics().AddRefreshed("failed", res.Failed)
	if err != nil {
		logger.Error("saved city refresh aborted", slog.Int("checked", res.Checked), slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed saved city refresh",
		slog.Int("checked", res.Checked),
		slog.Int("updated", res.Updated),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", j.now().Sub(start)))
	return tracker.End(nil)
}

func (j *RefreshCitiesJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RefreshCitiesJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *RefreshCitiesJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
