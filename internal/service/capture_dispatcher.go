package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/internal/capture"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/internal/sink"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/spf13/afero"
)

type CaptureDispatcherConfig struct {
	TempDir     string
	ArtifactDir string
	// StaleAfter bounds how late a job for a show with no stored record may
	// still be captured.
	StaleAfter time.Duration
}

type captureDispatcher struct {
	probe    occupancyProbe
	analyzer analyzer.Analyzer
	shows    repository.ShowRepository
	sink     sink.Sink
	fs       afero.Fs
	clock    clock.Clock
	cfg      CaptureDispatcherConfig
	l        logger.Logger
}

func NewCaptureDispatcher(
	shows repository.ShowRepository,
	capturer capture.Capturer,
	a analyzer.Analyzer,
	sk sink.Sink,
	fs afero.Fs,
	c clock.Clock,
	cfg CaptureDispatcherConfig,
	l logger.Logger,
) CaptureDispatcher {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 6 * time.Hour
	}
	return &captureDispatcher{
		probe:    occupancyProbe{fs: fs, tempDir: cfg.TempDir, capturer: capturer, analyzer: a},
		analyzer: a,
		shows:    shows,
		sink:     sk,
		fs:       fs,
		clock:    c,
		cfg:      cfg,
		l:        l,
	}
}

func (d *captureDispatcher) Dispatch(ctx context.Context, show *models.ShowRecord) (status models.ShowStatus) {
	ctx = logger.WithContext(ctx, d.l, "show", show.Key())

	var claimed *models.ShowRecord
	defer func() {
		if r := recover(); r != nil {
			d.l.Errorf(ctx, "service.captureDispatcher.Dispatch: panic: %v\n%s", r, debug.Stack())
			if claimed != nil {
				d.finish(ctx, claimed, models.ShowStatusError, models.FailureReasonPanic)
			}
			status = models.ShowStatusError
		}
	}()

	claimed, ok := d.claim(ctx, show)
	if !ok {
		return claimed.Status
	}

	res, img, err := d.probe.probe(ctx, claimed.TicketLink)
	switch {
	case errors.Is(err, ErrCaptureFailed):
		d.l.Warnf(ctx, "service.captureDispatcher.Dispatch: %v", err)
		d.finish(ctx, claimed, models.ShowStatusFailedCapture, models.FailureReasonCapture)
		return models.ShowStatusFailedCapture
	case err != nil:
		d.l.Warnf(ctx, "service.captureDispatcher.Dispatch: %v", err)
		d.finish(ctx, claimed, models.ShowStatusError, models.FailureReasonAnalysis)
		return models.ShowStatusError
	}

	claimed.Complete(res.Stats, d.clock.Now())
	d.store(ctx, claimed, models.ShowStatusDispatched)

	if err := d.sink.Stream(ctx, claimed); err != nil {
		d.l.Errorf(ctx, "service.captureDispatcher.Dispatch: sink: %v", err)
	}

	if d.cfg.ArtifactDir != "" {
		if err := d.writeArtifact(claimed, img, res); err != nil {
			d.l.Warnf(ctx, "service.captureDispatcher.Dispatch: artifact: %v", err)
		}
	}

	d.l.Infof(ctx, "service.captureDispatcher.Dispatch: %s completed: %d seats, %d unsold",
		claimed.Key(), res.Stats.TotalSeats, res.Stats.TotalUnsold)
	return models.ShowStatusCompleted
}

// claim moves the stored show from PENDING to DISPATCHED. A show that already
// left PENDING belongs to another dispatch. A show with no record is
// registered first unless its trigger is older than StaleAfter.
func (d *captureDispatcher) claim(ctx context.Context, show *models.ShowRecord) (*models.ShowRecord, bool) {
	claimed := *show
	claimed.Status = models.ShowStatusDispatched

	ok, err := d.shows.Transition(ctx, &claimed, models.ShowStatusPending)
	if errors.Is(err, repository.ErrShowNotFound) {
		if late := d.clock.Now().Sub(show.TriggerTimeUTC); show.TriggerTimeUTC.IsZero() || late > d.cfg.StaleAfter {
			d.l.Warnf(ctx, "service.captureDispatcher.claim: dropping stale job for %s, trigger %s",
				show.Key(), show.TriggerTimeUTC.Format(time.RFC3339))
			stale := *show
			stale.Status = models.ShowStatusError
			stale.FailureReason = models.FailureReasonStale
			return &stale, false
		}
		pending := *show
		pending.Status = models.ShowStatusPending
		if _, err = d.shows.Create(ctx, &pending); err == nil {
			ok, err = d.shows.Transition(ctx, &claimed, models.ShowStatusPending)
		}
	}
	if err != nil {
		d.l.Errorf(ctx, "service.captureDispatcher.claim: %v", err)
		show.Status = models.ShowStatusError
		show.FailureReason = models.FailureReasonInternal
		return show, false
	}

	if !ok {
		current, err := d.shows.Get(ctx, show.Key())
		if err != nil {
			d.l.Errorf(ctx, "service.captureDispatcher.claim: %v", err)
			return show, false
		}
		d.l.Infof(ctx, "service.captureDispatcher.claim: duplicate job for %s in %s", show.Key(), current.Status)
		return current, false
	}

	return &claimed, true
}

func (d *captureDispatcher) finish(ctx context.Context, show *models.ShowRecord, status models.ShowStatus, reason string) {
	show.Fail(status, reason, d.clock.Now())
	d.store(ctx, show, models.ShowStatusDispatched)
}

func (d *captureDispatcher) store(ctx context.Context, show *models.ShowRecord, from models.ShowStatus) {
	ok, err := d.shows.Transition(ctx, show, from)
	if err != nil {
		d.l.Errorf(ctx, "service.captureDispatcher.store: %v", err)
		return
	}
	if !ok {
		d.l.Warnf(ctx, "service.captureDispatcher.store: %s no longer %s", show.Key(), from)
	}
}

func (d *captureDispatcher) writeArtifact(show *models.ShowRecord, img image.Image, res analyzer.Result) error {
	if err := d.fs.MkdirAll(d.cfg.ArtifactDir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_%s_%s_%s.png", show.EventID, show.VenueCode, show.SessionID, show.ShowDate)
	f, err := d.fs.Create(filepath.Join(d.cfg.ArtifactDir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, d.analyzer.Annotate(img, res))
}
