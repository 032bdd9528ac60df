package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "1845", hour: 18, minute: 45},
		{in: "08:00", hour: 8},
		{in: " 23:59 ", hour: 23, minute: 59},
		{in: "2400", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "12345", wantErr: true},
		{in: "+130", wantErr: true},
		{in: "-030", wantErr: true},
		{in: "08:+5", wantErr: true},
		{in: "0:800", wantErr: true},
		{in: "08::00", wantErr: true},
		{in: "1 30", wantErr: true},
		{in: "0000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestCombineDateClock(t *testing.T) {
	loc, err := ParseUTCOffset("+05:30")
	require.NoError(t, err)

	at, err := CombineDateClock("20250310", "1845", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 13, 15, 0, 0, time.UTC), at.UTC())

	_, err = CombineDateClock("2025-03-10", "1845", loc)
	assert.Error(t, err)
}

func TestParseUTCOffset(t *testing.T) {
	tests := map[string]int{
		"+05:30": 19800,
		"-0400":  -14400,
		"Z":      0,
		"":       0,
	}
	for in, want := range tests {
		loc, err := ParseUTCOffset(in)
		require.NoError(t, err, in)
		_, got := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
		assert.Equal(t, want, got, in)
	}

	_, err := ParseUTCOffset("05:30")
	assert.Error(t, err)
}
