package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/util"
)

type TriggerConfig struct {
	DefaultCity  string
	DefaultLimit int
	Location     *time.Location
}

type triggerService struct {
	regions config.RegionConfig
	jobs    repository.JobRepository
	clock   clock.Clock
	cfg     TriggerConfig
	l       logger.Logger
}

func NewTriggerService(
	regions config.RegionConfig,
	jobs repository.JobRepository,
	c clock.Clock,
	cfg TriggerConfig,
	l logger.Logger,
) TriggerService {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "MUMBAI"
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &triggerService{
		regions: regions,
		jobs:    jobs,
		clock:   c,
		cfg:     cfg,
		l:       l,
	}
}

// Trigger enqueues a city batch that fires immediately and is run by a
// consumer of the city batch topic.
func (t *triggerService) Trigger(ctx context.Context, in TriggerInput) (*TriggerOutput, error) {
	now := t.clock.Now()

	city := strings.ToUpper(strings.TrimSpace(in.City))
	if city == "" {
		city = t.cfg.DefaultCity
	}
	if _, ok := t.regions.Lookup(city); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}

	batch := BatchInput{
		City:    city,
		EventID: in.EventID,
		Date:    in.Date,
		Limit:   in.Limit,
		Title:   in.Title,
	}
	if batch.Date == "" {
		batch.Date = util.FormatDateCode(now.In(t.cfg.Location))
	}
	if batch.Limit <= 0 {
		batch.Limit = t.cfg.DefaultLimit
	}

	job, err := models.NewBatchJob(fmt.Sprintf("%s:%s:%s", batch.City, batch.EventID, batch.Date), now, batch)
	if err != nil {
		t.l.Errorf(ctx, "service.triggerService.Trigger: %v", err)
		return nil, err
	}

	if err := t.jobs.Schedule(ctx, job); err != nil {
		t.l.Errorf(ctx, "service.triggerService.Trigger: %v", err)
		return nil, err
	}

	t.l.Infof(ctx, "service.triggerService.Trigger: batch %s %s %s queued as %s", batch.City, batch.EventID, batch.Date, job.ID)

	return &TriggerOutput{
		Status:  "success",
		Message: fmt.Sprintf("Task created for %s event %s", batch.City, batch.EventID),
		JobID:   job.ID,
		FireAt:  job.FireAt,
	}, nil
}
