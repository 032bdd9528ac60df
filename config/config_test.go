package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegions(t *testing.T) {
	rc := DefaultRegions()
	assert.Equal(t, []string{"AHMEDABAD", "MUMBAI", "RAJKOT", "SURAT", "VADODARA"}, rc.Cities())

	r, ok := rc.Lookup(" ahmedabad ")
	require.True(t, ok)
	assert.Equal(t, "AHD", r.Code)

	_, ok = rc.Lookup("DELHI")
	assert.False(t, ok)
}

func TestParseRegions(t *testing.T) {
	rc, err := ParseRegions([]byte(`
regions:
  pune:
    code: PUNE
    lat: "18.5204"
    lon: "73.8567"
  goa:
    code: GOA
    slug: goa-india
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"GOA", "PUNE"}, rc.Cities())

	r, ok := rc.Lookup("Pune")
	require.True(t, ok)
	assert.Equal(t, "18.5204", r.Lat)
	assert.Equal(t, "pune", r.LinkSlug())

	r, _ = rc.Lookup("GOA")
	assert.Equal(t, "goa-india", r.LinkSlug())
}

func TestParseRegions_Invalid(t *testing.T) {
	_, err := ParseRegions([]byte("regions:\n  pune:\n    slug: pune\n"))
	assert.ErrorContains(t, err, "code is required")

	_, err = ParseRegions([]byte("regions: ["))
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHEDULER_CIVIL_OFFSET", "+05:30")
	t.Setenv("REGIONS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "15m0s", cfg.Scheduler.LeadOffset.String())
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.JobLease)
	assert.Equal(t, 6*time.Hour, cfg.Capture.StaleAfter)

	loc, err := cfg.Scheduler.Location()
	require.NoError(t, err)
	_, offset := time.Date(2025, 3, 10, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

func TestValidate(t *testing.T) {
	t.Setenv("SCHEDULER_LEAD_OFFSET", "-1m")
	_, err := Load()
	assert.ErrorContains(t, err, "lead offset")
}

func TestValidate_JobLease(t *testing.T) {
	t.Setenv("SCHEDULER_POLL_INTERVAL", "10s")
	t.Setenv("SCHEDULER_JOB_LEASE", "5s")
	_, err := Load()
	assert.ErrorContains(t, err, "job lease")
}
