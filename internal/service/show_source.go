package service

import (
	"context"
	"fmt"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"github.com/piyushdan-dataslush/bms-analytics/internal/schedule"
)

type ScheduleConfig struct {
	Location   *time.Location
	LeadOffset time.Duration
	LinkBase   string
}

// showSource fetches and parses one region's schedule for a day.
type showSource struct {
	fetcher schedule.Fetcher
	cfg     ScheduleConfig
}

func (s showSource) load(ctx context.Context, eventID, date, title string, region models.Region) ([]*models.ShowRecord, error) {
	body, err := s.fetcher.Fetch(ctx, schedule.FetchRequest{
		EventCode:  eventID,
		RegionCode: region.Code,
		Lat:        region.Lat,
		Lon:        region.Lon,
		DateCode:   date,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScheduleUnavailable, region.City, err)
	}

	shows, err := schedule.Parse(body, eventID, region, schedule.ParseOptions{
		Location:   s.cfg.Location,
		LeadOffset: s.cfg.LeadOffset,
		LinkBase:   s.cfg.LinkBase,
		Title:      title,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScheduleUnavailable, region.City, err)
	}

	return shows, nil
}
