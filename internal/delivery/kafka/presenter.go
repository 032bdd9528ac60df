package kafka

import (
	"encoding/json"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
)

// JobFiredEvent is published when a deferred job becomes due.
type JobFiredEvent struct {
	JobID     string          `json:"job_id"`
	Kind      models.JobKind  `json:"kind"`
	DedupeKey string          `json:"dedupe_key"`
	FireAt    time.Time       `json:"fire_at"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewJobFiredEvent(job models.Job, now time.Time) JobFiredEvent {
	return JobFiredEvent{
		JobID:     job.ID,
		Kind:      job.Kind,
		DedupeKey: job.DedupeKey,
		FireAt:    job.FireAt,
		Payload:   job.Payload,
		Timestamp: now,
	}
}

func (e JobFiredEvent) Job() models.Job {
	return models.Job{
		ID:        e.JobID,
		Kind:      e.Kind,
		FireAt:    e.FireAt,
		DedupeKey: e.DedupeKey,
		Payload:   e.Payload,
	}
}
