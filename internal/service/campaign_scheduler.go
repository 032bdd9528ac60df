package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/internal/schedule"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type CampaignSchedulerConfig struct {
	Schedule          ScheduleConfig
	DedupeTTL         time.Duration
	RegionConcurrency int
}

type campaignScheduler struct {
	source  showSource
	regions config.RegionConfig
	shows   repository.ShowRepository
	jobs    repository.JobRepository
	clock   clock.Clock
	cfg     CampaignSchedulerConfig
	l       logger.Logger
}

func NewCampaignScheduler(
	fetcher schedule.Fetcher,
	regions config.RegionConfig,
	shows repository.ShowRepository,
	jobs repository.JobRepository,
	c clock.Clock,
	cfg CampaignSchedulerConfig,
	l logger.Logger,
) CampaignScheduler {
	if cfg.Schedule.Location == nil {
		cfg.Schedule.Location = time.UTC
	}
	if cfg.RegionConcurrency <= 0 {
		cfg.RegionConcurrency = 1
	}
	return &campaignScheduler{
		source:  showSource{fetcher: fetcher, cfg: cfg.Schedule},
		regions: regions,
		shows:   shows,
		jobs:    jobs,
		clock:   c,
		cfg:     cfg,
		l:       l,
	}
}

func (s *campaignScheduler) Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapOutput, error) {
	cursor := in.Cursor()
	if err := cursor.Validate(); err != nil {
		return nil, err
	}

	job, err := models.NewCampaignJob(cursor, s.clock.Now())
	if err != nil {
		s.l.Errorf(ctx, "service.campaignScheduler.Bootstrap: %v", err)
		return nil, err
	}

	if err := s.jobs.Schedule(ctx, job); err != nil {
		s.l.Errorf(ctx, "service.campaignScheduler.Bootstrap: %v", err)
		return nil, err
	}

	s.l.Infof(ctx, "service.campaignScheduler.Bootstrap: campaign %s %s..%s daily at %s",
		cursor.EventID, cursor.CurrentDate, cursor.EndDate, cursor.DailyRunTime)

	return &BootstrapOutput{
		Status: "accepted",
		State:  models.CampaignStatePending,
		JobID:  job.ID,
		FireAt: job.FireAt,
	}, nil
}

// ProcessDay discovers the day's shows across all regions, schedules one
// capture per show whose trigger is still ahead, and chains the next day
// unless cursor is on its final day.
func (s *campaignScheduler) ProcessDay(ctx context.Context, cursor models.CampaignCursor) (*DayOutput, error) {
	if err := cursor.Validate(); err != nil {
		return nil, err
	}

	dedupeKey := "campaign:day:" + cursor.DedupeKey()
	first, err := s.shows.AcquireOnce(ctx, dedupeKey, s.cfg.DedupeTTL)
	if err != nil {
		s.l.Errorf(ctx, "service.campaignScheduler.ProcessDay: %v", err)
		return nil, err
	}
	if !first {
		s.l.Warnf(ctx, "service.campaignScheduler.ProcessDay: %s already processed", cursor.DedupeKey())
		return nil, ErrDuplicateInvocation
	}

	out := &DayOutput{
		EventID: cursor.EventID,
		Date:    cursor.CurrentDate,
		State:   cursor.State(s.clock.Now(), s.cfg.Schedule.Location),
	}
	// Bootstrap fires the first day immediately, possibly before its run time.
	if out.State == models.CampaignStatePending {
		out.State = models.CampaignStateActive
	}

	shows := s.discover(ctx, cursor, out)
	s.scheduleCaptures(ctx, shows, out)

	if cursor.IsFinal() {
		out.State = models.CampaignStateTerminated
		s.l.Infof(ctx, "service.campaignScheduler.ProcessDay: campaign %s finished on %s", cursor.EventID, cursor.CurrentDate)
	} else {
		next, err := s.scheduleNextDay(ctx, cursor)
		if err != nil {
			// A redelivery must be able to run the day again; shows already
			// stored are reported as duplicates then.
			if relErr := s.shows.Release(ctx, dedupeKey); relErr != nil {
				s.l.Errorf(ctx, "service.campaignScheduler.ProcessDay: release %s: %v", dedupeKey, relErr)
				err = errors.Join(err, relErr)
			}
			return out, err
		}
		out.Next = &next
	}

	s.l.Infof(ctx, "service.campaignScheduler.ProcessDay: %s %s: %d shows, %d scheduled, %d elapsed, %d duplicate, %d failed",
		cursor.EventID, cursor.CurrentDate, out.Shows, out.Scheduled, out.Skipped, out.Duplicates, out.Failed)

	return out, nil
}

func (s *campaignScheduler) discover(ctx context.Context, cursor models.CampaignCursor, out *DayOutput) []*models.ShowRecord {
	regions := s.regions.All()
	perRegion := make([][]*models.ShowRecord, len(regions))

	var (
		mu     sync.Mutex
		failed int
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.RegionConcurrency)
	for i, region := range regions {
		g.Go(func() error {
			shows, err := s.source.load(ctx, cursor.EventID, cursor.CurrentDate, cursor.Title, region)
			if err != nil {
				s.l.Warnf(ctx, "service.campaignScheduler.discover: skipping region: %v", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			perRegion[i] = shows
			return nil
		})
	}
	_ = g.Wait()

	var shows []*models.ShowRecord
	for _, rs := range perRegion {
		shows = append(shows, rs...)
	}

	out.Regions = len(regions) - failed
	out.RegionsFailed = failed
	out.Shows = len(shows)
	return shows
}

func (s *campaignScheduler) scheduleCaptures(ctx context.Context, shows []*models.ShowRecord, out *DayOutput) {
	now := s.clock.Now()

	for _, show := range shows {
		if !show.TriggerTimeUTC.After(now) {
			out.Skipped++
			continue
		}

		created, err := s.shows.Create(ctx, show)
		if err != nil {
			s.l.Errorf(ctx, "service.campaignScheduler.scheduleCaptures: %s: %v", show.Key(), err)
			out.Failed++
			continue
		}
		if !created {
			out.Duplicates++
			continue
		}

		job, err := models.NewCaptureJob(show)
		if err == nil {
			err = s.jobs.Schedule(ctx, job)
		}
		if err != nil {
			s.l.Errorf(ctx, "service.campaignScheduler.scheduleCaptures: %s: %v", show.Key(), err)
			out.Failed++
			continue
		}
		out.Scheduled++
	}
}

func (s *campaignScheduler) scheduleNextDay(ctx context.Context, cursor models.CampaignCursor) (time.Time, error) {
	next, err := cursor.Next()
	if err != nil {
		return time.Time{}, err
	}

	runAt, err := next.RunAt(s.cfg.Schedule.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidCursor, err)
	}

	job, err := models.NewCampaignJob(next, runAt)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.jobs.Schedule(ctx, job); err != nil {
		s.l.Errorf(ctx, "service.campaignScheduler.scheduleNextDay: %v", err)
		return time.Time{}, errors.Join(fmt.Errorf("chain broken after %s", cursor.DedupeKey()), err)
	}

	s.l.Infof(ctx, "service.campaignScheduler.scheduleNextDay: %s scheduled at %s", next.DedupeKey(), runAt.Format(time.RFC3339))
	return runAt, nil
}
