package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
)

// Columns is the column order of every occupancy table and CSV spool file.
var Columns = []string{
	"event_id", "venue_code", "venue_name", "session_id", "show_date", "show_time",
	"show_date_time", "trigger_time", "ticket_link", "status",
	"total_seats", "filled_sold", "available", "bestseller", "total_unsold",
	"title", "city", "processed_at",
}

const (
	colShowDateTime = 6
	colTriggerTime  = 7
	colTotalSeats   = 10
	colTotalUnsold  = 14
	colTitle        = 15
	colProcessedAt  = 17
)

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func row(s *models.ShowRecord, now time.Time) []any {
	var stats models.OccupancyStats
	if s.Stats != nil {
		stats = *s.Stats
	}
	processed := now.UTC()
	if s.ProcessedAt != nil {
		processed = *s.ProcessedAt
	}

	return []any{
		s.EventID, s.VenueCode, s.VenueName, s.SessionID, s.ShowDate, s.ShowTime,
		timeOrNil(s.ShowDateTime), timeOrNil(s.TriggerTime), s.TicketLink, string(s.Status),
		stats.TotalSeats, stats.FilledSold, stats.Available, stats.Bestseller, stats.TotalUnsold,
		s.Title, s.City, processed,
	}
}

// WriteCSV writes a header and one line per show in Columns order.
func WriteCSV(w io.Writer, shows []*models.ShowRecord, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, s := range shows {
		values := row(s, now)
		rec := make([]string, len(values))
		for i, v := range values {
			switch t := v.(type) {
			case string:
				rec[i] = t
			case int:
				rec[i] = strconv.Itoa(t)
			case time.Time:
				rec[i] = t.Format(time.RFC3339)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV back into typed rows.
func ReadCSV(r io.Reader) ([][]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range header {
		if name != Columns[i] {
			return nil, fmt.Errorf("unexpected csv column %d: %q", i, name)
		}
	}

	var rows [][]any
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		values := make([]any, len(rec))
		for i, field := range rec {
			switch {
			case i >= colTotalSeats && i <= colTotalUnsold:
				n, err := strconv.Atoi(field)
				if err != nil {
					return nil, fmt.Errorf("csv line %d column %s: %w", line, Columns[i], err)
				}
				values[i] = n
			case i == colShowDateTime || i == colTriggerTime || i == colProcessedAt:
				if field == "" {
					values[i] = nil
					continue
				}
				t, err := time.Parse(time.RFC3339, field)
				if err != nil {
					return nil, fmt.Errorf("csv line %d column %s: %w", line, Columns[i], err)
				}
				values[i] = t
			default:
				values[i] = field
			}
		}
		rows = append(rows, values)
	}

	return rows, nil
}
