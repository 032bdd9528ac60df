package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/internal/schedule"
	"github.com/piyushdan-dataslush/bms-analytics/internal/sink"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

var ist = time.FixedZone("UTC+05:30", 5*3600+30*60)

type fakeFetcher struct {
	docs map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, req schedule.FetchRequest) ([]byte, error) {
	doc, ok := f.docs[req.RegionCode]
	if !ok {
		return nil, schedule.ErrUnexpectedStatus
	}
	return []byte(doc), nil
}

type fakeCapturer struct {
	mu    sync.Mutex
	calls int
	body  []byte
	err   error
	panic bool
}

func (f *fakeCapturer) Capture(_ context.Context, _ string, w io.Writer) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panic {
		panic("browser crashed")
	}
	if f.err != nil {
		return f.err
	}
	_, err := w.Write(f.body)
	return err
}

type fakeSink struct {
	mu       sync.Mutex
	fs       afero.Fs
	streamed []*models.ShowRecord
	loaded   int64
	paths    []string
	loadErr  error
}

func (f *fakeSink) Stream(_ context.Context, show *models.ShowRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamed = append(f.streamed, show)
	return nil
}

func (f *fakeSink) LoadFile(_ context.Context, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.loadErr != nil {
		return 0, f.loadErr
	}

	file, err := f.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	rows, err := sink.ReadCSV(file)
	if err != nil {
		return 0, err
	}
	f.loaded += int64(len(rows))
	return int64(len(rows)), nil
}

type fakeProducer struct {
	mu        sync.Mutex
	published []models.Job
	failFirst int
}

func (f *fakeProducer) PublishJob(_ context.Context, job models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("broker down")
	}
	f.published = append(f.published, job)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

// flakyJobs fails the first failFirst Schedule calls for jobs of failKind and
// the first failAck Ack calls.
type flakyJobs struct {
	repository.JobRepository
	mu        sync.Mutex
	failKind  models.JobKind
	failFirst int
	failAck   int
}

func (f *flakyJobs) Schedule(ctx context.Context, job models.Job) error {
	f.mu.Lock()
	if job.Kind == f.failKind && f.failFirst > 0 {
		f.failFirst--
		f.mu.Unlock()
		return errors.New("redis unavailable")
	}
	f.mu.Unlock()
	return f.JobRepository.Schedule(ctx, job)
}

func (f *flakyJobs) Ack(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.failAck > 0 {
		f.failAck--
		f.mu.Unlock()
		return errors.New("connection reset")
	}
	f.mu.Unlock()
	return f.JobRepository.Ack(ctx, id)
}

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newRepos(t *testing.T) (*miniredis.Miniredis, repository.ShowRepository, repository.JobRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })

	l := logger.InitializeTestZapLogger()
	return mr, repository.NewRedisShowRepository(cli, time.Hour, l), repository.NewRedisJobRepository(cli, l)
}

// seatMapPNG renders avail green and sold gray seats.
func seatMapPNG(t *testing.T, avail, sold int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := 0; i < avail+sold; i++ {
		c := color.RGBA{R: 80, G: 80, B: 80, A: 255}
		if i < avail {
			c = color.RGBA{G: 160, A: 255}
		}
		x := 10 + i*35
		draw.Draw(img, image.Rect(x, 20, x+25, 45), image.NewUniform(c), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const dayDoc = `{"data":{"showtimeWidgets":[{"type":"groupList","data":[{"type":"venueGroup","data":[
	{"type":"venue-card","additionalData":{"venueName":"PVR Acropolis","venueCode":"PVAC"},"showtimes":[
		{"title":"10:00 AM","additionalData":{"sessionId":"1","showDateCode":"20250310","showTimeCode":"1000"}},
		{"title":"06:45 PM","additionalData":{"sessionId":"2","showDateCode":"20250310","showTimeCode":"1845"}}
	]},
	{"type":"venue-card","additionalData":{"venueName":"Cinepolis","venueCode":"CPAO"},"showtimes":[
		{"title":"09:30 PM","additionalData":{"sessionId":"3","showDateCode":"20250310","showTimeCode":"2130"}}
	]}
]}]}]}}`
