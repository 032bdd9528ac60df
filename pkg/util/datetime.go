package util

import (
	"fmt"
	"strings"
	"time"
)

const DateCodeFormat = "20060102"

// ParseDateCode parses a YYYYMMDD code as a civil date in loc.
func ParseDateCode(code string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateCodeFormat, strings.TrimSpace(code), loc)
}

func FormatDateCode(t time.Time) string {
	return t.Format(DateCodeFormat)
}

// ParseClock accepts "HHMM" or "HH:MM" and returns hour and minute.
func ParseClock(code string) (int, int, error) {
	code = strings.TrimSpace(code)
	digits := code
	if len(code) == 5 && code[2] == ':' {
		digits = code[:2] + code[3:]
	}
	if len(digits) != 4 {
		return 0, 0, fmt.Errorf("invalid clock %q", code)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, fmt.Errorf("invalid clock %q", code)
		}
	}

	hour := int(digits[0]-'0')*10 + int(digits[1]-'0')
	minute := int(digits[2]-'0')*10 + int(digits[3]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("clock out of range %q", code)
	}

	return hour, minute, nil
}

// CombineDateClock builds the civil instant dateCode + clock in loc.
func CombineDateClock(dateCode, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDateCode(dateCode, loc)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// ParseUTCOffset turns "+05:30" / "-0400" / "Z" into a fixed zone.
func ParseUTCOffset(offset string) (*time.Location, error) {
	offset = strings.TrimSpace(offset)
	if offset == "" || offset == "Z" || offset == "UTC" {
		return time.UTC, nil
	}

	sign := 1
	switch offset[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("invalid utc offset %q", offset)
	}

	hour, minute, err := ParseClock(offset[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", offset, err)
	}

	secs := sign * (hour*3600 + minute*60)
	return time.FixedZone("UTC"+offset, secs), nil
}
