package repository

import (
	"context"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingShow() *models.ShowRecord {
	return &models.ShowRecord{
		EventID:        "ET1",
		VenueCode:      "PVAC",
		SessionID:      "10021",
		ShowDate:       "20250310",
		TriggerTimeUTC: time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC),
		Status:         models.ShowStatusPending,
	}
}

func TestShowRepository_CreateIsIdempotent(t *testing.T) {
	_, cli := newTestClient(t)
	repo := NewRedisShowRepository(cli, time.Hour, logger.InitializeTestZapLogger())
	ctx := context.Background()

	created, err := repo.Create(ctx, pendingShow())
	require.NoError(t, err)
	assert.True(t, created)

	dup := pendingShow()
	dup.VenueName = "changed"
	created, err = repo.Create(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.Get(ctx, dup.Key())
	require.NoError(t, err)
	assert.Empty(t, got.VenueName)
	assert.Equal(t, models.ShowStatusPending, got.Status)
}

func TestShowRepository_Transition(t *testing.T) {
	_, cli := newTestClient(t)
	repo := NewRedisShowRepository(cli, time.Hour, logger.InitializeTestZapLogger())
	ctx := context.Background()

	show := pendingShow()
	_, err := repo.Create(ctx, show)
	require.NoError(t, err)

	show.Status = models.ShowStatusDispatched
	ok, err := repo.Transition(ctx, show, models.ShowStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second dispatch of the same show loses the race
	ok, err = repo.Transition(ctx, show, models.ShowStatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	show.Complete(models.OccupancyStats{TotalSeats: 2, Available: 2, TotalUnsold: 2}, time.Now())
	ok, err = repo.Transition(ctx, show, models.ShowStatusDispatched)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Get(ctx, show.Key())
	require.NoError(t, err)
	assert.Equal(t, models.ShowStatusCompleted, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 2, got.Stats.Available)

	show.Status = models.ShowStatusPending
	_, err = repo.Transition(ctx, show, models.ShowStatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestShowRepository_Missing(t *testing.T) {
	_, cli := newTestClient(t)
	repo := NewRedisShowRepository(cli, time.Hour, logger.InitializeTestZapLogger())
	ctx := context.Background()

	_, err := repo.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrShowNotFound)

	show := pendingShow()
	show.Status = models.ShowStatusDispatched
	_, err = repo.Transition(ctx, show, models.ShowStatusPending)
	require.ErrorIs(t, err, ErrShowNotFound)
}

func TestShowRepository_AcquireOnce(t *testing.T) {
	mr, cli := newTestClient(t)
	repo := NewRedisShowRepository(cli, time.Hour, logger.InitializeTestZapLogger())
	ctx := context.Background()

	ok, err := repo.AcquireOnce(ctx, "campaign:day:ET1:20250310", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireOnce(ctx, "campaign:day:ET1:20250310", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = repo.AcquireOnce(ctx, "campaign:day:ET1:20250310", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Release(ctx, "campaign:day:ET1:20250310"))
	ok, err = repo.AcquireOnce(ctx, "campaign:day:ET1:20250310", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Release(ctx, "campaign:day:never-taken"))
}
