package service

import (
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
)

type BootstrapInput struct {
	EventID      string `json:"event_id" validate:"required"`
	TargetDate   string `json:"target_date" validate:"required,len=8,numeric"`
	EndDate      string `json:"end_date" validate:"required,len=8,numeric"`
	DailyRunTime string `json:"daily_run_time" validate:"required"`
	Title        string `json:"title"`
}

func (in BootstrapInput) Cursor() models.CampaignCursor {
	return models.CampaignCursor{
		EventID:      in.EventID,
		CurrentDate:  in.TargetDate,
		EndDate:      in.EndDate,
		DailyRunTime: in.DailyRunTime,
		Title:        in.Title,
	}
}

type BootstrapOutput struct {
	Status string               `json:"status"`
	State  models.CampaignState `json:"state"`
	JobID  string               `json:"job_id"`
	FireAt time.Time            `json:"fire_at"`
}

type DayOutput struct {
	EventID       string               `json:"event_id"`
	Date          string               `json:"date"`
	Regions       int                  `json:"regions"`
	RegionsFailed int                  `json:"regions_failed"`
	Shows         int                  `json:"shows"`
	Scheduled     int                  `json:"scheduled"`
	Skipped       int                  `json:"skipped"`
	Duplicates    int                  `json:"duplicates"`
	Failed        int                  `json:"failed"`
	Next          *time.Time           `json:"next,omitempty"`
	State         models.CampaignState `json:"state"`
}

type BatchInput struct {
	City    string `json:"city" validate:"required"`
	EventID string `json:"event_id" validate:"required"`
	Date    string `json:"date" validate:"required,len=8,numeric"`
	Limit   int    `json:"limit" validate:"gte=0"`
	Title   string `json:"title"`
}

type BatchOutput struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	RowsProcessed int    `json:"rows_processed"`
	RowsUploaded  int64  `json:"rows_uploaded"`
}

// TriggerInput asks for a city batch to run asynchronously. City, Date and
// Limit fall back to configured defaults.
type TriggerInput struct {
	EventID string `json:"event_id" validate:"required"`
	City    string `json:"city"`
	Date    string `json:"date" validate:"omitempty,len=8,numeric"`
	Limit   int    `json:"limit" validate:"gte=0"`
	Title   string `json:"title"`
}

type TriggerOutput struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	JobID   string    `json:"job_id"`
	FireAt  time.Time `json:"fire_at"`
}

type PendingJobsOutput struct {
	Total    int64        `json:"total"`
	InFlight int64        `json:"in_flight"`
	Jobs     []models.Job `json:"jobs"`
}

type DispatcherStatus struct {
	IsRunning  bool      `json:"is_running"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	LastPolled time.Time `json:"last_polled,omitempty"`
	TotalFired int64     `json:"total_fired"`
	Requeued   int64     `json:"requeued"`
	ErrorCount int64     `json:"error_count"`
}
