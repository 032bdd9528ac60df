package service

import (
	"context"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/clock"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_QueuesCityBatch(t *testing.T) {
	_, _, jobs := newRepos(t)
	// 00:30 on the 11th in the civil zone.
	now := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	svc := NewTriggerService(testRegions, jobs, clock.Fixed(now),
		TriggerConfig{DefaultCity: "SURAT", DefaultLimit: 3, Location: ist}, logger.InitializeTestZapLogger())
	ctx := context.Background()

	out, err := svc.Trigger(ctx, TriggerInput{EventID: "ET00452447"})
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	assert.True(t, out.FireAt.Equal(now))

	out2, err := svc.Trigger(ctx, TriggerInput{EventID: "ET00452447", City: " ahmedabad ", Date: "20250315", Limit: 1})
	require.NoError(t, err)

	byKind := jobsByKind(t, jobs)
	require.Len(t, byKind[models.JobKindCityBatch], 2)

	got := make(map[string]BatchInput)
	for _, j := range byKind[models.JobKindCityBatch] {
		var in BatchInput
		require.NoError(t, j.Batch(&in))
		got[j.ID] = in
	}

	assert.Equal(t, BatchInput{City: "SURAT", EventID: "ET00452447", Date: "20250311", Limit: 3}, got[out.JobID])
	assert.Equal(t, BatchInput{City: "AHMEDABAD", EventID: "ET00452447", Date: "20250315", Limit: 1}, got[out2.JobID])
}

func TestTrigger_UnknownCity(t *testing.T) {
	_, _, jobs := newRepos(t)
	svc := NewTriggerService(testRegions, jobs, clock.Fixed(dayOneNoon), TriggerConfig{}, logger.InitializeTestZapLogger())

	_, err := svc.Trigger(context.Background(), TriggerInput{EventID: "ET1"})
	assert.ErrorIs(t, err, ErrUnknownCity)

	n, err := jobs.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
