package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/analyzer"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(t *testing.T, capturer *fakeCapturer, loadErr error) (BatchService, *fakeSink, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	sk := &fakeSink{fs: fs, loadErr: loadErr}

	b := NewBatchService(&fakeFetcher{docs: map[string]string{"AHD": dayDoc}}, testRegions, capturer,
		analyzer.New(analyzer.DefaultThresholds()), sk, fs,
		clock.Fixed(time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)),
		BatchConfig{
			Schedule:     ScheduleConfig{Location: ist, LeadOffset: 15 * time.Minute},
			DefaultLimit: 5,
			Concurrency:  2,
			TempDir:      "/tmp",
			SpoolDir:     "/spool",
		}, logger.InitializeTestZapLogger())
	return b, sk, fs
}

func TestProcessCity(t *testing.T) {
	capturer := &fakeCapturer{body: seatMapPNG(t, 2, 2)}
	b, sk, fs := newBatch(t, capturer, nil)

	out, err := b.ProcessCity(context.Background(), BatchInput{City: "ahmedabad", EventID: "ET1", Date: "20250310", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 2, out.RowsProcessed)
	assert.EqualValues(t, 2, out.RowsUploaded)
	assert.Equal(t, 2, capturer.calls)

	require.Len(t, sk.paths, 1)
	exists, err := afero.Exists(fs, sk.paths[0])
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProcessCity_KeepsSpoolWhenUploadFails(t *testing.T) {
	b, sk, fs := newBatch(t, &fakeCapturer{body: seatMapPNG(t, 1, 1)}, errors.New("db down"))

	_, err := b.ProcessCity(context.Background(), BatchInput{City: "AHMEDABAD", EventID: "ET1", Date: "20250310"})
	require.ErrorIs(t, err, ErrUploadFailed)

	require.Len(t, sk.paths, 1)
	exists, err := afero.Exists(fs, sk.paths[0])
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProcessCity_NothingCaptured(t *testing.T) {
	b, sk, _ := newBatch(t, &fakeCapturer{err: errors.New("no canvas")}, nil)

	out, err := b.ProcessCity(context.Background(), BatchInput{City: "AHMEDABAD", EventID: "ET1", Date: "20250310"})
	require.NoError(t, err)
	assert.Zero(t, out.RowsProcessed)
	assert.Empty(t, sk.paths)
}

func TestProcessCity_Errors(t *testing.T) {
	b, _, _ := newBatch(t, &fakeCapturer{}, nil)

	_, err := b.ProcessCity(context.Background(), BatchInput{City: "DELHI", EventID: "ET1", Date: "20250310"})
	assert.ErrorIs(t, err, ErrUnknownCity)

	_, err = b.ProcessCity(context.Background(), BatchInput{City: "SURAT", EventID: "ET1", Date: "20250310"})
	assert.ErrorIs(t, err, ErrScheduleUnavailable)
}
