package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/util"
)

const defaultLinkBase = "https://in.bookmyshow.com"

type ParseOptions struct {
	// Location is the civil zone date and time codes are read in.
	Location   *time.Location
	LeadOffset time.Duration
	LinkBase   string
	Title      string
}

// Parse turns a raw schedule document into show records with computed
// trigger times. Rows missing a date or time code, or whose codes do not
// parse, are dropped. A document with no venue-card leaves yields an empty
// slice and no error.
func Parse(doc []byte, eventID string, region models.Region, opts ParseOptions) ([]*models.ShowRecord, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	linkBase := opts.LinkBase
	if linkBase == "" {
		linkBase = defaultLinkBase
	}

	shows := make([]*models.ShowRecord, 0)
	for _, rawWidget := range d.Data.ShowtimeWidgets {
		var w widget
		if json.Unmarshal(rawWidget, &w) != nil || w.Type != typeGroupList {
			continue
		}
		for _, rawGroup := range w.Data {
			var g group
			if json.Unmarshal(rawGroup, &g) != nil || g.Type != typeVenueGroup {
				continue
			}
			for _, rawVenue := range g.Data {
				var v venue
				if json.Unmarshal(rawVenue, &v) != nil || v.Type != typeVenueCard {
					continue
				}
				for _, rawShow := range v.Showtimes {
					var st showtime
					if json.Unmarshal(rawShow, &st) != nil {
						continue
					}
					show, ok := buildShow(eventID, region, v, st, loc, opts.LeadOffset, linkBase)
					if !ok {
						continue
					}
					show.Title = opts.Title
					shows = append(shows, show)
				}
			}
		}
	}

	sort.SliceStable(shows, func(i, j int) bool {
		a, b := shows[i], shows[j]
		if !a.TriggerTimeUTC.Equal(b.TriggerTimeUTC) {
			return a.TriggerTimeUTC.Before(b.TriggerTimeUTC)
		}
		if a.VenueCode != b.VenueCode {
			return a.VenueCode < b.VenueCode
		}
		return a.SessionID < b.SessionID
	})

	return shows, nil
}

func buildShow(eventID string, region models.Region, v venue, st showtime, loc *time.Location, lead time.Duration, linkBase string) (*models.ShowRecord, bool) {
	dateCode := string(st.AdditionalData.ShowDateCode)
	timeCode := string(st.AdditionalData.ShowTimeCode)
	if dateCode == "" || timeCode == "" {
		return nil, false
	}

	showAt, err := util.CombineDateClock(dateCode, timeCode, loc)
	if err != nil {
		return nil, false
	}

	venueCode := string(v.AdditionalData.VenueCode)
	sessionID := string(st.AdditionalData.SessionID)
	trigger := TriggerTime(showAt, lead)

	screen := string(st.ScreenAttr)
	if screen == "" {
		screen = "Standard"
	}

	return &models.ShowRecord{
		EventID:        eventID,
		VenueCode:      venueCode,
		VenueName:      string(v.AdditionalData.VenueName),
		SessionID:      sessionID,
		ShowDate:       dateCode,
		ShowTime:       string(st.Title),
		ShowDateTime:   showAt,
		TriggerTime:    trigger,
		TriggerTimeUTC: trigger.UTC(),
		TicketLink:     TicketLink(linkBase, region.LinkSlug(), eventID, venueCode, sessionID, dateCode),
		City:           region.City,
		Format:         screen,
		StyleID:        string(st.StyleID),
		Status:         models.ShowStatusPending,
	}, true
}

// TriggerTime is the local capture instant lead before showAt.
func TriggerTime(showAt time.Time, lead time.Duration) time.Time {
	return showAt.Add(-lead)
}

func TicketLink(base, slug, eventID, venueCode, sessionID, showDate string) string {
	return fmt.Sprintf("%s/movies/%s/seat-layout/%s/%s/%s/%s", base, slug, eventID, venueCode, sessionID, showDate)
}
