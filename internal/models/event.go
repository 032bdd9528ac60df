package models

import (
	"regexp"
	"strings"
)

var (
	eventIDPattern   = regexp.MustCompile(`ET\d{8}`)
	eventPathPattern = regexp.MustCompile(`/event/([^/]+)/`)
)

// ExtractEventID pulls the event code out of a listing URL such as
// https://in.bookmyshow.com/mumbai/movies/ET00452447/buy-tickets.
func ExtractEventID(s string) (string, bool) {
	if id := eventIDPattern.FindString(s); id != "" {
		return id, true
	}
	if m := eventPathPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// NormalizeEventID accepts either a bare event code or a listing URL.
func NormalizeEventID(s string) string {
	s = strings.TrimSpace(s)
	if id, ok := ExtractEventID(s); ok {
		return id
	}
	return s
}
