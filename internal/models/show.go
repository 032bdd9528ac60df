package models

import (
	"fmt"
	"time"
)

type ShowStatus string

const (
	ShowStatusPending       ShowStatus = "PENDING"
	ShowStatusDispatched    ShowStatus = "DISPATCHED"
	ShowStatusCompleted     ShowStatus = "COMPLETED"
	ShowStatusFailedCapture ShowStatus = "FAILED_CAPTURE"
	ShowStatusError         ShowStatus = "ERROR"
)

const (
	FailureReasonCapture  = "capture"
	FailureReasonAnalysis = "analysis"
	FailureReasonPanic    = "panic"
	FailureReasonInternal = "internal"
	FailureReasonStale    = "stale"
)

var showTransitions = map[ShowStatus][]ShowStatus{
	ShowStatusPending:    {ShowStatusDispatched},
	ShowStatusDispatched: {ShowStatusCompleted, ShowStatusFailedCapture, ShowStatusError},
}

func (s ShowStatus) IsTerminal() bool {
	return s == ShowStatusCompleted || s == ShowStatusFailedCapture || s == ShowStatusError
}

func (s ShowStatus) IsValid() bool {
	switch s {
	case ShowStatusPending, ShowStatusDispatched, ShowStatusCompleted, ShowStatusFailedCapture, ShowStatusError:
		return true
	}
	return false
}

// CanTransition reports whether from -> to follows
// PENDING -> DISPATCHED -> {COMPLETED | FAILED_CAPTURE | ERROR}.
func CanTransition(from, to ShowStatus) bool {
	for _, next := range showTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OccupancyStats is the per-image seat count produced by the analyzer.
type OccupancyStats struct {
	TotalSeats  int `json:"total_seats"`
	FilledSold  int `json:"filled_sold"`
	Available   int `json:"available"`
	Bestseller  int `json:"bestseller"`
	TotalUnsold int `json:"total_unsold"`
}

func (s OccupancyStats) Valid() bool {
	return s.FilledSold+s.Available+s.Bestseller == s.TotalSeats &&
		s.TotalUnsold == s.Available+s.Bestseller
}

// ShowRecord is one (venue, showtime) of a campaign day.
type ShowRecord struct {
	EventID        string          `json:"event_id"`
	VenueCode      string          `json:"venue_code"`
	VenueName      string          `json:"venue_name"`
	SessionID      string          `json:"session_id"`
	ShowDate       string          `json:"show_date"`
	ShowTime       string          `json:"show_time"`
	ShowDateTime   time.Time       `json:"show_date_time"`
	TriggerTime    time.Time       `json:"trigger_time"`
	TriggerTimeUTC time.Time       `json:"trigger_time_utc"`
	TicketLink     string          `json:"ticket_link"`
	City           string          `json:"city"`
	Title          string          `json:"title,omitempty"`
	Format         string          `json:"format,omitempty"`
	StyleID        string          `json:"style_id,omitempty"`
	Status         ShowStatus      `json:"status"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Stats          *OccupancyStats `json:"stats,omitempty"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
}

// ShowKey is the identity of a show within a campaign day.
func ShowKey(eventID, sessionID, showDate string) string {
	return fmt.Sprintf("%s:%s:%s", eventID, sessionID, showDate)
}

func (s *ShowRecord) Key() string {
	return ShowKey(s.EventID, s.SessionID, s.ShowDate)
}

// Complete attaches stats and marks the record COMPLETED.
func (s *ShowRecord) Complete(stats OccupancyStats, at time.Time) {
	st := stats
	s.Stats = &st
	s.Status = ShowStatusCompleted
	s.FailureReason = ""
	processed := at.UTC()
	s.ProcessedAt = &processed
}

// Fail marks the record with a non-completed terminal status.
func (s *ShowRecord) Fail(status ShowStatus, reason string, at time.Time) {
	s.Status = status
	s.FailureReason = reason
	processed := at.UTC()
	s.ProcessedAt = &processed
}
