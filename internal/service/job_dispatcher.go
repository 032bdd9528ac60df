package service

import (
	"context"
	"sync"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/delivery/kafka/producer"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
)

type JobDispatcherConfig struct {
	PollInterval    time.Duration // How often to look for due jobs
	BatchSize       int           // Max jobs fired per poll
	Lease           time.Duration // How long a popped job may stay unacknowledged
	ShutdownTimeout time.Duration // Max time to wait for graceful shutdown
}

type jobDispatcher struct {
	// Dependencies
	jobs     repository.JobRepository
	producer producer.Producer
	clock    clock.Clock
	logger   logger.Logger

	// Configuration
	config JobDispatcherConfig

	// State management
	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	stopCh    chan struct{}
	ticker    *time.Ticker
	wg        sync.WaitGroup

	// Metrics
	lastPolled time.Time
	totalFired int64
	requeued   int64
	errorCount int64
}

func NewJobDispatcher(
	jobs repository.JobRepository,
	producer producer.Producer,
	c clock.Clock,
	logger logger.Logger,
	cfg JobDispatcherConfig,
) JobDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	return &jobDispatcher{
		jobs:     jobs,
		producer: producer,
		clock:    c,
		logger:   logger.With("component", "job_dispatcher"),
		config:   cfg,
	}
}

func (jd *jobDispatcher) Start(ctx context.Context) error {
	jd.mu.Lock()
	defer jd.mu.Unlock()

	if jd.isRunning {
		return ErrProcessorRunning
	}

	jd.logger.Infof(ctx, "service.jobDispatcher.Start: polling every %s, batch %d", jd.config.PollInterval, jd.config.BatchSize)

	jd.isRunning = true
	jd.startedAt = time.Now()
	jd.stopCh = make(chan struct{})
	jd.ticker = time.NewTicker(jd.config.PollInterval)

	jd.wg.Add(1)
	go jd.pollLoop(ctx, jd.ticker, jd.stopCh)

	return nil
}

func (jd *jobDispatcher) Stop() error {
	jd.mu.Lock()
	if !jd.isRunning {
		jd.mu.Unlock()
		return ErrProcessorNotRunning
	}

	jd.logger.Info(context.Background(), "Stopping job dispatcher...")

	close(jd.stopCh)
	jd.ticker.Stop()
	jd.isRunning = false
	jd.mu.Unlock()

	// PollOnce takes mu, so wait without holding it.
	done := make(chan struct{})
	go func() {
		jd.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		jd.logger.Info(context.Background(), "Job dispatcher stopped gracefully")
	case <-time.After(jd.config.ShutdownTimeout):
		jd.logger.Warn(context.Background(), "Job dispatcher shutdown timeout exceeded")
	}

	return nil
}

func (jd *jobDispatcher) pollLoop(ctx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	defer jd.wg.Done()

	for {
		select {
		case <-ctx.Done():
			jd.logger.Info(ctx, "Job dispatcher stopped due to context cancellation")
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := jd.PollOnce(ctx); err != nil {
				jd.logger.Errorf(ctx, "service.jobDispatcher.pollLoop: %v", err)
			}
		}
	}
}

// PollOnce returns expired leases to the queue, then fires every job due
// now, up to the batch size. A job is forgotten only once its event is on the
// broker; one whose publish fails goes back at its original fire time.
func (jd *jobDispatcher) PollOnce(ctx context.Context) (int, error) {
	defer func() {
		jd.mu.Lock()
		jd.lastPolled = time.Now()
		jd.mu.Unlock()
	}()

	now := jd.clock.Now()

	requeued, err := jd.jobs.RequeueExpired(ctx, now)
	if err != nil {
		jd.incrementErrorCount()
		return 0, err
	}
	if requeued > 0 {
		jd.mu.Lock()
		jd.requeued += int64(requeued)
		jd.mu.Unlock()
	}

	due, err := jd.jobs.PopDue(ctx, now, jd.config.Lease, jd.config.BatchSize)
	if err != nil {
		jd.incrementErrorCount()
		return 0, err
	}

	fired := 0
	for _, job := range due {
		if err := jd.producer.PublishJob(ctx, job); err != nil {
			jd.incrementErrorCount()
			jd.logger.Warnf(ctx, "service.jobDispatcher.PollOnce: requeue %s %s: %v", job.Kind, job.DedupeKey, err)
			if err := jd.jobs.Schedule(ctx, job); err != nil {
				jd.logger.Errorf(ctx, "service.jobDispatcher.PollOnce: %s %s stays leased: %v", job.Kind, job.DedupeKey, err)
			}
			continue
		}

		// Unacknowledged jobs are fired again once the lease runs out.
		if err := jd.jobs.Ack(ctx, job.ID); err != nil {
			jd.incrementErrorCount()
			jd.logger.Warnf(ctx, "service.jobDispatcher.PollOnce: ack %s %s: %v", job.Kind, job.DedupeKey, err)
		}
		fired++
	}

	if fired > 0 {
		jd.mu.Lock()
		jd.totalFired += int64(fired)
		jd.mu.Unlock()
		jd.logger.Debugf(ctx, "service.jobDispatcher.PollOnce: fired %d of %d", fired, len(due))
	}

	return fired, nil
}

func (jd *jobDispatcher) incrementErrorCount() {
	jd.mu.Lock()
	defer jd.mu.Unlock()
	jd.errorCount++
}

func (jd *jobDispatcher) GetStatus() DispatcherStatus {
	jd.mu.RLock()
	defer jd.mu.RUnlock()

	return DispatcherStatus{
		IsRunning:  jd.isRunning,
		StartedAt:  jd.startedAt,
		LastPolled: jd.lastPolled,
		TotalFired: jd.totalFired,
		Requeued:   jd.requeued,
		ErrorCount: jd.errorCount,
	}
}
