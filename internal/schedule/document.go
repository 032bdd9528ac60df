package schedule

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// Unexpected shapes degrade to empty so the row is dropped, not the batch.
		*f = ""
		return nil
	}
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

type document struct {
	Data struct {
		ShowtimeWidgets []json.RawMessage `json:"showtimeWidgets"`
	} `json:"data"`
}

// Nodes below the top level are kept raw and decoded one by one so a single
// malformed node is skipped instead of failing the whole document.
type widget struct {
	Type string            `json:"type"`
	Data []json.RawMessage `json:"data"`
}

type group struct {
	Type string            `json:"type"`
	Data []json.RawMessage `json:"data"`
}

type venue struct {
	Type           string `json:"type"`
	AdditionalData struct {
		VenueName flexString `json:"venueName"`
		VenueCode flexString `json:"venueCode"`
	} `json:"additionalData"`
	Showtimes []json.RawMessage `json:"showtimes"`
}

type showtime struct {
	Title          flexString `json:"title"`
	StyleID        flexString `json:"styleId"`
	ScreenAttr     flexString `json:"screenAttr"`
	AdditionalData struct {
		SessionID    flexString `json:"sessionId"`
		ShowDateCode flexString `json:"showDateCode"`
		ShowTimeCode flexString `json:"showTimeCode"`
	} `json:"additionalData"`
}

const (
	typeGroupList  = "groupList"
	typeVenueGroup = "venueGroup"
	typeVenueCard  = "venue-card"
)
