package service

import (
	"context"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
)

type showService struct {
	shows repository.ShowRepository
	jobs  repository.JobRepository
	l     logger.Logger
}

func NewShowService(shows repository.ShowRepository, jobs repository.JobRepository, l logger.Logger) ShowService {
	return &showService{
		shows: shows,
		jobs:  jobs,
		l:     l,
	}
}

func (s *showService) GetShow(ctx context.Context, eventID, sessionID, showDate string) (*models.ShowRecord, error) {
	return s.shows.Get(ctx, models.ShowKey(eventID, sessionID, showDate))
}

func (s *showService) PendingJobs(ctx context.Context, limit int) (*PendingJobsOutput, error) {
	total, err := s.jobs.Count(ctx)
	if err != nil {
		return nil, err
	}

	inFlight, err := s.jobs.InFlight(ctx)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobs.Pending(ctx, limit)
	if err != nil {
		return nil, err
	}

	return &PendingJobsOutput{Total: total, InFlight: inFlight, Jobs: jobs}, nil
}
