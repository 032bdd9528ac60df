package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/pkg/util"
)

var ErrInvalidCursor = errors.New("invalid campaign cursor")

type CampaignState string

const (
	CampaignStatePending    CampaignState = "PENDING"
	CampaignStateActive     CampaignState = "ACTIVE"
	CampaignStateTerminated CampaignState = "TERMINATED"
)

// CampaignCursor is the whole state carried from one campaign day to the next.
type CampaignCursor struct {
	EventID      string `json:"event_id"`
	CurrentDate  string `json:"target_date"`
	EndDate      string `json:"end_date"`
	DailyRunTime string `json:"daily_run_time"`
	Title        string `json:"title,omitempty"`
}

func (c CampaignCursor) Validate() error {
	if c.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidCursor)
	}

	cur, err := util.ParseDateCode(c.CurrentDate, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: target_date %q", ErrInvalidCursor, c.CurrentDate)
	}

	end, err := util.ParseDateCode(c.EndDate, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: end_date %q", ErrInvalidCursor, c.EndDate)
	}

	if cur.After(end) {
		return fmt.Errorf("%w: target_date %s is after end_date %s", ErrInvalidCursor, c.CurrentDate, c.EndDate)
	}

	if _, _, err := util.ParseClock(c.DailyRunTime); err != nil {
		return fmt.Errorf("%w: daily_run_time %q", ErrInvalidCursor, c.DailyRunTime)
	}

	return nil
}

// IsFinal reports CurrentDate >= EndDate. Callers validate first.
func (c CampaignCursor) IsFinal() bool {
	return c.CurrentDate >= c.EndDate
}

// Next returns the cursor advanced by exactly one civil day.
func (c CampaignCursor) Next() (CampaignCursor, error) {
	cur, err := util.ParseDateCode(c.CurrentDate, time.UTC)
	if err != nil {
		return CampaignCursor{}, fmt.Errorf("%w: target_date %q", ErrInvalidCursor, c.CurrentDate)
	}

	next := c
	next.CurrentDate = util.FormatDateCode(cur.AddDate(0, 0, 1))
	return next, nil
}

// RunAt is CurrentDate combined with DailyRunTime in loc.
func (c CampaignCursor) RunAt(loc *time.Location) (time.Time, error) {
	return util.CombineDateClock(c.CurrentDate, c.DailyRunTime, loc)
}

// State places the campaign in PENDING -> ACTIVE -> TERMINATED at now:
// PENDING until the cursor's run instant, then ACTIVE, or TERMINATED once
// the run instant of the final day has passed.
func (c CampaignCursor) State(now time.Time, loc *time.Location) CampaignState {
	runAt, err := c.RunAt(loc)
	if err != nil || now.Before(runAt) {
		return CampaignStatePending
	}
	if c.IsFinal() {
		return CampaignStateTerminated
	}
	return CampaignStateActive
}

func (c CampaignCursor) DedupeKey() string {
	return fmt.Sprintf("%s:%s", c.EventID, c.CurrentDate)
}
