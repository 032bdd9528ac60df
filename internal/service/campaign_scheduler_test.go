package service

import (
	"context"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	repository "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRegions = config.NewRegionConfig([]models.Region{
	{City: "AHMEDABAD", Code: "AHD", Slug: "ahd"},
	{City: "SURAT", Code: "SURT", Slug: "surt"},
})

// 17:30 in the civil zone on the first campaign day.
var dayOneNoon = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T, now time.Time, docs map[string]string) (CampaignScheduler, repository.ShowRepository, repository.JobRepository) {
	t.Helper()
	_, shows, jobs := newRepos(t)
	s := NewCampaignScheduler(&fakeFetcher{docs: docs}, testRegions, shows, jobs, clock.Fixed(now),
		CampaignSchedulerConfig{
			Schedule:          ScheduleConfig{Location: ist, LeadOffset: 15 * time.Minute},
			DedupeTTL:         time.Hour,
			RegionConcurrency: 2,
		}, logger.InitializeTestZapLogger())
	return s, shows, jobs
}

func jobsByKind(t *testing.T, repo repository.JobRepository) map[models.JobKind][]models.Job {
	t.Helper()
	pending, err := repo.Pending(context.Background(), 100)
	require.NoError(t, err)

	out := make(map[models.JobKind][]models.Job)
	for _, j := range pending {
		out[j.Kind] = append(out[j.Kind], j)
	}
	return out
}

func TestProcessDay_SchedulesFutureShowsAndNextDay(t *testing.T) {
	s, shows, jobs := newScheduler(t, dayOneNoon, map[string]string{"AHD": dayDoc})
	ctx := context.Background()

	out, err := s.ProcessDay(ctx, models.CampaignCursor{
		EventID: "ET1", CurrentDate: "20250310", EndDate: "20250312", DailyRunTime: "08:00",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Regions)
	assert.Equal(t, 1, out.RegionsFailed)
	assert.Equal(t, 3, out.Shows)
	assert.Equal(t, 2, out.Scheduled)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, models.CampaignStateActive, out.State)
	require.NotNil(t, out.Next)
	assert.True(t, out.Next.Equal(time.Date(2025, 3, 11, 2, 30, 0, 0, time.UTC)))

	byKind := jobsByKind(t, jobs)
	require.Len(t, byKind[models.JobKindCaptureShow], 2)
	require.Len(t, byKind[models.JobKindCampaignDay], 1)

	capture := byKind[models.JobKindCaptureShow][0]
	assert.True(t, capture.FireAt.Equal(time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)))
	for _, j := range byKind[models.JobKindCaptureShow] {
		assert.True(t, j.FireAt.After(dayOneNoon))
	}

	next, err := byKind[models.JobKindCampaignDay][0].Cursor()
	require.NoError(t, err)
	assert.Equal(t, "20250311", next.CurrentDate)
	assert.Equal(t, "20250312", next.EndDate)
	assert.Equal(t, "08:00", next.DailyRunTime)

	stored, err := shows.Get(ctx, models.ShowKey("ET1", "2", "20250310"))
	require.NoError(t, err)
	assert.Equal(t, models.ShowStatusPending, stored.Status)

	_, err = shows.Get(ctx, models.ShowKey("ET1", "1", "20250310"))
	assert.ErrorIs(t, err, repository.ErrShowNotFound)
}

func TestProcessDay_FinalDayTerminates(t *testing.T) {
	s, _, jobs := newScheduler(t, dayOneNoon, map[string]string{"AHD": dayDoc})

	out, err := s.ProcessDay(context.Background(), models.CampaignCursor{
		EventID: "ET1", CurrentDate: "20250310", EndDate: "20250310", DailyRunTime: "08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStateTerminated, out.State)
	assert.Nil(t, out.Next)

	byKind := jobsByKind(t, jobs)
	assert.Empty(t, byKind[models.JobKindCampaignDay])
	assert.Len(t, byKind[models.JobKindCaptureShow], 2)
}

func TestProcessDay_AllRegionsFailingStillChains(t *testing.T) {
	s, _, jobs := newScheduler(t, dayOneNoon, nil)

	out, err := s.ProcessDay(context.Background(), models.CampaignCursor{
		EventID: "ET1", CurrentDate: "20250310", EndDate: "20250311", DailyRunTime: "0800",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RegionsFailed)
	assert.Zero(t, out.Scheduled)

	byKind := jobsByKind(t, jobs)
	assert.Len(t, byKind[models.JobKindCampaignDay], 1)
}

func TestProcessDay_DuplicateInvocation(t *testing.T) {
	s, _, jobs := newScheduler(t, dayOneNoon, map[string]string{"AHD": dayDoc})
	ctx := context.Background()
	cursor := models.CampaignCursor{EventID: "ET1", CurrentDate: "20250310", EndDate: "20250312", DailyRunTime: "08:00"}

	_, err := s.ProcessDay(ctx, cursor)
	require.NoError(t, err)

	_, err = s.ProcessDay(ctx, cursor)
	require.ErrorIs(t, err, ErrDuplicateInvocation)

	byKind := jobsByKind(t, jobs)
	assert.Len(t, byKind[models.JobKindCampaignDay], 1)
	assert.Len(t, byKind[models.JobKindCaptureShow], 2)
}

func TestProcessDay_RedeliveryAfterChainFailure(t *testing.T) {
	_, shows, repo := newRepos(t)
	jobs := &flakyJobs{JobRepository: repo, failKind: models.JobKindCampaignDay, failFirst: 1}
	s := NewCampaignScheduler(&fakeFetcher{docs: map[string]string{"AHD": dayDoc}}, testRegions, shows, jobs, clock.Fixed(dayOneNoon),
		CampaignSchedulerConfig{
			Schedule:  ScheduleConfig{Location: ist, LeadOffset: 15 * time.Minute},
			DedupeTTL: time.Hour,
		}, logger.InitializeTestZapLogger())
	ctx := context.Background()
	cursor := models.CampaignCursor{EventID: "ET1", CurrentDate: "20250310", EndDate: "20250312", DailyRunTime: "08:00"}

	out, err := s.ProcessDay(ctx, cursor)
	require.Error(t, err)
	assert.ErrorContains(t, err, "chain broken")
	assert.Equal(t, 2, out.Scheduled)
	assert.Empty(t, jobsByKind(t, repo)[models.JobKindCampaignDay])

	out, err = s.ProcessDay(ctx, cursor)
	require.NoError(t, err)
	assert.Zero(t, out.Scheduled)
	assert.Equal(t, 2, out.Duplicates)
	require.NotNil(t, out.Next)

	byKind := jobsByKind(t, repo)
	require.Len(t, byKind[models.JobKindCampaignDay], 1)
	assert.Len(t, byKind[models.JobKindCaptureShow], 2)

	_, err = s.ProcessDay(ctx, cursor)
	assert.ErrorIs(t, err, ErrDuplicateInvocation)
}

func TestProcessDay_SameShowFromTwoRegions(t *testing.T) {
	s, _, jobs := newScheduler(t, dayOneNoon, map[string]string{"AHD": dayDoc, "SURT": dayDoc})

	out, err := s.ProcessDay(context.Background(), models.CampaignCursor{
		EventID: "ET1", CurrentDate: "20250310", EndDate: "20250310", DailyRunTime: "08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Scheduled)
	assert.Equal(t, 2, out.Duplicates)
	assert.Len(t, jobsByKind(t, jobs)[models.JobKindCaptureShow], 2)
}

func TestProcessDay_InvalidCursor(t *testing.T) {
	s, _, _ := newScheduler(t, dayOneNoon, nil)

	tests := []models.CampaignCursor{
		{EventID: "", CurrentDate: "20250310", EndDate: "20250311", DailyRunTime: "08:00"},
		{EventID: "ET1", CurrentDate: "20250312", EndDate: "20250311", DailyRunTime: "08:00"},
		{EventID: "ET1", CurrentDate: "2025-03-10", EndDate: "20250311", DailyRunTime: "08:00"},
		{EventID: "ET1", CurrentDate: "20250310", EndDate: "20250311", DailyRunTime: "8am"},
	}
	for _, c := range tests {
		_, err := s.ProcessDay(context.Background(), c)
		assert.ErrorIs(t, err, models.ErrInvalidCursor, "%+v", c)
	}
}

func TestBootstrap(t *testing.T) {
	s, _, jobs := newScheduler(t, dayOneNoon, nil)

	out, err := s.Bootstrap(context.Background(), BootstrapInput{
		EventID: "ET1", TargetDate: "20250310", EndDate: "20250315", DailyRunTime: "08:00", Title: "Chhaava",
	})
	require.NoError(t, err)
	assert.Equal(t, "accepted", out.Status)
	assert.Equal(t, models.CampaignStatePending, out.State)
	assert.True(t, out.FireAt.Equal(dayOneNoon))

	byKind := jobsByKind(t, jobs)
	require.Len(t, byKind[models.JobKindCampaignDay], 1)
	c, err := byKind[models.JobKindCampaignDay][0].Cursor()
	require.NoError(t, err)
	assert.Equal(t, "Chhaava", c.Title)

	_, err = s.Bootstrap(context.Background(), BootstrapInput{
		EventID: "ET1", TargetDate: "20250316", EndDate: "20250315", DailyRunTime: "08:00",
	})
	assert.ErrorIs(t, err, models.ErrInvalidCursor)
}
