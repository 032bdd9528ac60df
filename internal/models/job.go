package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobKindCampaignDay JobKind = "campaign_day"
	JobKindCaptureShow JobKind = "capture_show"
	JobKindCityBatch   JobKind = "city_batch"
)

// Job is a deferred work item fired at or after FireAt.
type Job struct {
	ID        string          `json:"id"`
	Kind      JobKind         `json:"kind"`
	FireAt    time.Time       `json:"fire_at"`
	DedupeKey string          `json:"dedupe_key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func newJob(kind JobKind, dedupeKey string, fireAt time.Time, payload any) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	return Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		FireAt:    fireAt.UTC(),
		DedupeKey: dedupeKey,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func NewCampaignJob(c CampaignCursor, fireAt time.Time) (Job, error) {
	return newJob(JobKindCampaignDay, c.DedupeKey(), fireAt, c)
}

// NewCaptureJob schedules show at its TriggerTimeUTC.
func NewCaptureJob(s *ShowRecord) (Job, error) {
	return newJob(JobKindCaptureShow, s.Key(), s.TriggerTimeUTC, s)
}

// NewBatchJob wraps an on-demand city batch request fired at fireAt.
func NewBatchJob(dedupeKey string, fireAt time.Time, request any) (Job, error) {
	return newJob(JobKindCityBatch, dedupeKey, fireAt, request)
}

func (j Job) Cursor() (CampaignCursor, error) {
	var c CampaignCursor
	if j.Kind != JobKindCampaignDay {
		return c, fmt.Errorf("job %s is %s, not %s", j.ID, j.Kind, JobKindCampaignDay)
	}
	if err := json.Unmarshal(j.Payload, &c); err != nil {
		return c, fmt.Errorf("decode cursor of job %s: %w", j.ID, err)
	}
	return c, nil
}

func (j Job) Show() (*ShowRecord, error) {
	if j.Kind != JobKindCaptureShow {
		return nil, fmt.Errorf("job %s is %s, not %s", j.ID, j.Kind, JobKindCaptureShow)
	}
	var s ShowRecord
	if err := json.Unmarshal(j.Payload, &s); err != nil {
		return nil, fmt.Errorf("decode show of job %s: %w", j.ID, err)
	}
	return &s, nil
}

// Batch decodes the request of a city batch job into v.
func (j Job) Batch(v any) error {
	if j.Kind != JobKindCityBatch {
		return fmt.Errorf("job %s is %s, not %s", j.ID, j.Kind, JobKindCityBatch)
	}
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode batch of job %s: %w", j.ID, err)
	}
	return nil
}
