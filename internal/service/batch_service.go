package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/capture"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/internal/schedule"
	"github.com/piyushdan-dataslush/bms-analytics/internal/sink"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

type BatchConfig struct {
	Schedule     ScheduleConfig
	DefaultLimit int
	Concurrency  int
	TempDir      string
	SpoolDir     string
}

type batchService struct {
	source  showSource
	probe   occupancyProbe
	regions config.RegionConfig
	sink    sink.Sink
	fs      afero.Fs
	clock   clock.Clock
	cfg     BatchConfig
	l       logger.Logger
}

func NewBatchService(
	fetcher schedule.Fetcher,
	regions config.RegionConfig,
	capturer capture.Capturer,
	a analyzer.Analyzer,
	sk sink.Sink,
	fs afero.Fs,
	c clock.Clock,
	cfg BatchConfig,
	l logger.Logger,
) BatchService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &batchService{
		source:  showSource{fetcher: fetcher, cfg: cfg.Schedule},
		probe:   occupancyProbe{fs: fs, tempDir: cfg.TempDir, capturer: capturer, analyzer: a},
		regions: regions,
		sink:    sk,
		fs:      fs,
		clock:   c,
		cfg:     cfg,
		l:       l,
	}
}

// ProcessCity captures the first Limit shows of one city and bulk loads the
// completed rows. The spool file is removed only after a successful load.
func (b *batchService) ProcessCity(ctx context.Context, in BatchInput) (*BatchOutput, error) {
	region, ok := b.regions.Lookup(in.City)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, in.City)
	}

	shows, err := b.source.load(ctx, in.EventID, in.Date, in.Title, region)
	if err != nil {
		b.l.Warnf(ctx, "service.batchService.ProcessCity: %v", err)
		return nil, err
	}
	if len(shows) == 0 {
		return &BatchOutput{Status: "success", Message: "no shows in schedule"}, nil
	}

	limit := in.Limit
	if limit <= 0 {
		limit = b.cfg.DefaultLimit
	}
	if len(shows) > limit {
		shows = shows[:limit]
	}

	p := pool.NewWithResults[*models.ShowRecord]().WithMaxGoroutines(b.cfg.Concurrency)
	for _, show := range shows {
		p.Go(func() *models.ShowRecord {
			return b.processShow(ctx, show)
		})
	}

	var completed []*models.ShowRecord
	for _, show := range p.Wait() {
		if show.Status == models.ShowStatusCompleted {
			completed = append(completed, show)
		}
	}

	out := &BatchOutput{Status: "success", RowsProcessed: len(completed)}
	if len(completed) == 0 {
		out.Message = "no valid data collected"
		return out, nil
	}

	uploaded, err := b.upload(ctx, in, completed)
	if err != nil {
		b.l.Errorf(ctx, "service.batchService.ProcessCity: %v", err)
		return nil, err
	}
	out.RowsUploaded = uploaded

	b.l.Infof(ctx, "service.batchService.ProcessCity: %s %s %s: %d processed, %d uploaded",
		region.City, in.EventID, in.Date, out.RowsProcessed, out.RowsUploaded)
	return out, nil
}

func (b *batchService) processShow(ctx context.Context, show *models.ShowRecord) *models.ShowRecord {
	res, _, err := b.probe.probe(ctx, show.TicketLink)
	switch {
	case errors.Is(err, ErrCaptureFailed):
		b.l.Warnf(ctx, "service.batchService.processShow: %s: %v", show.Key(), err)
		show.Fail(models.ShowStatusFailedCapture, models.FailureReasonCapture, b.clock.Now())
	case err != nil:
		b.l.Warnf(ctx, "service.batchService.processShow: %s: %v", show.Key(), err)
		show.Fail(models.ShowStatusError, models.FailureReasonAnalysis, b.clock.Now())
	default:
		show.Complete(res.Stats, b.clock.Now())
	}
	return show
}

func (b *batchService) upload(ctx context.Context, in BatchInput, shows []*models.ShowRecord) (int64, error) {
	if err := b.fs.MkdirAll(b.cfg.SpoolDir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	pattern := fmt.Sprintf("batch-%s-%s-%s-*.csv", strings.ToLower(in.City), in.EventID, in.Date)
	f, err := afero.TempFile(b.fs, b.cfg.SpoolDir, pattern)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	path := f.Name()

	err = sink.WriteCSV(f, shows, b.clock.Now())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("%w: spool %s: %v", ErrUploadFailed, path, err)
	}

	n, err := b.sink.LoadFile(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: spool kept at %s: %v", ErrUploadFailed, path, err)
	}

	if err := b.fs.Remove(path); err != nil {
		b.l.Warnf(ctx, "service.batchService.upload: remove %s: %v", path, err)
	}
	return n, nil
}
