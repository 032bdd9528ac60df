package schedule

import (
	"os"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ahmedabad = models.Region{City: "AHMEDABAD", Code: "AHD", Slug: "ahd", Lat: "23.0225", Lon: "72.5714"}

func ist(t *testing.T) *time.Location {
	t.Helper()
	return time.FixedZone("UTC+05:30", 5*3600+30*60)
}

func TestParse(t *testing.T) {
	doc, err := os.ReadFile("testdata/showtimes.json")
	require.NoError(t, err)

	loc := ist(t)
	shows, err := Parse(doc, "ET00395402", ahmedabad, ParseOptions{
		Location:   loc,
		LeadOffset: 15 * time.Minute,
		Title:      "Chhaava",
	})
	require.NoError(t, err)
	require.Len(t, shows, 3)

	// sorted by trigger time, then venue code
	assert.Equal(t, "10020", shows[0].SessionID)
	assert.Equal(t, "CPAO", shows[1].VenueCode)
	assert.Equal(t, "PVAC", shows[2].VenueCode)

	evening := shows[2]
	assert.Equal(t, "ET00395402", evening.EventID)
	assert.Equal(t, "PVR Acropolis", evening.VenueName)
	assert.Equal(t, "10021", evening.SessionID)
	assert.Equal(t, "20250310", evening.ShowDate)
	assert.Equal(t, "06:45 PM", evening.ShowTime)
	assert.Equal(t, "IMAX 2D", evening.Format)
	assert.Equal(t, "st-1", evening.StyleID)
	assert.Equal(t, "AHMEDABAD", evening.City)
	assert.Equal(t, "Chhaava", evening.Title)
	assert.Equal(t, models.ShowStatusPending, evening.Status)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 45, 0, 0, loc), evening.ShowDateTime)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 30, 0, 0, loc), evening.TriggerTime)
	assert.Equal(t, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), evening.TriggerTimeUTC)
	assert.True(t, evening.TriggerTimeUTC.In(loc).Equal(evening.TriggerTime))
	assert.Equal(t,
		"https://in.bookmyshow.com/movies/ahd/seat-layout/ET00395402/PVAC/10021/20250310",
		evening.TicketLink)

	assert.Equal(t, "Standard", shows[0].Format)
}

func TestParse_TriggerPrecedesShowByLead(t *testing.T) {
	doc, err := os.ReadFile("testdata/showtimes.json")
	require.NoError(t, err)

	lead := 40 * time.Minute
	shows, err := Parse(doc, "ET1", ahmedabad, ParseOptions{Location: ist(t), LeadOffset: lead})
	require.NoError(t, err)

	for _, s := range shows {
		assert.Equal(t, lead, s.ShowDateTime.Sub(s.TriggerTime), s.SessionID)
		assert.Equal(t, time.UTC, s.TriggerTimeUTC.Location())
	}
}

func TestParse_EmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty object", `{}`, false},
		{"no widgets", `{"data":{"showtimeWidgets":[]}}`, false},
		{"wrong widget type", `{"data":{"showtimeWidgets":[{"type":"other","data":[]}]}}`, false},
		{"widget with object data", `{"data":{"showtimeWidgets":[{"type":"groupList","data":{}}]}}`, false},
		{"not json", `<html>blocked</html>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shows, err := Parse([]byte(tt.doc), "ET1", ahmedabad, ParseOptions{})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedDocument)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, shows)
			assert.Empty(t, shows)
		})
	}
}

func TestParse_SlugFallsBackToCode(t *testing.T) {
	doc := `{"data":{"showtimeWidgets":[{"type":"groupList","data":[{"type":"venueGroup","data":[
		{"type":"venue-card","additionalData":{"venueCode":"INMB"},"showtimes":[
			{"title":"09:00 PM","additionalData":{"sessionId":"7","showDateCode":"20250311","showTimeCode":"2100"}}
		]}]}]}]}}`

	region := models.Region{City: "MUMBAI", Code: "MUMBAI"}
	shows, err := Parse([]byte(doc), "ET9", region, ParseOptions{LinkBase: "http://local"})
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, "http://local/movies/mumbai/seat-layout/ET9/INMB/7/20250311", shows[0].TicketLink)
}
