package service

import (
	"context"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
)

type CampaignScheduler interface {
	Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapOutput, error)
	ProcessDay(ctx context.Context, cursor models.CampaignCursor) (*DayOutput, error)
}

type CaptureDispatcher interface {
	// Dispatch never fails; the outcome is the status the show ends in.
	Dispatch(ctx context.Context, show *models.ShowRecord) models.ShowStatus
}

type BatchService interface {
	ProcessCity(ctx context.Context, in BatchInput) (*BatchOutput, error)
}

type TriggerService interface {
	Trigger(ctx context.Context, in TriggerInput) (*TriggerOutput, error)
}

type ShowService interface {
	GetShow(ctx context.Context, eventID, sessionID, showDate string) (*models.ShowRecord, error)
	PendingJobs(ctx context.Context, limit int) (*PendingJobsOutput, error)
}

type JobDispatcher interface {
	Start(ctx context.Context) error
	Stop() error
	PollOnce(ctx context.Context) (int, error)
	GetStatus() DispatcherStatus
}
