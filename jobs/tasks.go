package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCitiesRefresh re-resolves every saved city and stores fresh AQI values.
	TaskCitiesRefresh = "cities:refresh"
)

// CitiesRefreshPayload describes a refresh request. Trigger is informational
// ("cron" or "manual").
type CitiesRefreshPayload struct {
	Trigger string `json:"trigger"`
}

// NewCitiesRefreshTask constructs an Asynq task. Only one refresh may be
// queued at a time.
func NewCitiesRefreshTask(payload CitiesRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCitiesRefresh, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(15*time.Minute),
	), nil
}
