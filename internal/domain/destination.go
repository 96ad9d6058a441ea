package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Destination is an ordered itinerary entry embedded in a Trip. It has no
// identity of its own — position in the Destinations slice is the display
// and itinerary order, and edits always replace the whole sequence.
type Destination struct {
	Name          string
	Date          time.Time
	Cost          int64
	Notes         string
	GoogleMapLink string
}

// destinationJSON is the canonical persisted form. Dates are written as
// plain calendar dates and cost as an integer.
type destinationJSON struct {
	Name          string          `json:"name"`
	Date          string          `json:"date"`
	Cost          json.RawMessage `json:"cost,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	GoogleMapLink string          `json:"googleMapLink,omitempty"`
}

// MarshalJSON always emits the canonical form regardless of which schema
// revision the record was read from.
func (d Destination) MarshalJSON() ([]byte, error) {
	cost, _ := json.Marshal(d.Cost)
	return json.Marshal(destinationJSON{
		Name:          d.Name,
		Date:          d.Date.Format("2006-01-02"),
		Cost:          cost,
		Notes:         d.Notes,
		GoogleMapLink: d.GoogleMapLink,
	})
}

// UnmarshalJSON accepts every shape that exists in stored records:
//   - date as "2006-01-02", as a full RFC 3339 timestamp, or absent
//   - cost as a JSON number, as a numeric string (older records were
//     written straight from a text input), or absent (oldest records
//     predate the field) — absent or blank decodes to 0
func (d *Destination) UnmarshalJSON(data []byte) error {
	var raw destinationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("domain.Destination: %w", err)
	}

	d.Name = raw.Name
	d.Notes = raw.Notes
	d.GoogleMapLink = raw.GoogleMapLink

	if raw.Date != "" {
		t, err := parseFlexibleDate(raw.Date)
		if err != nil {
			return fmt.Errorf("domain.Destination: date %q: %w", raw.Date, err)
		}
		d.Date = t
	}

	cost, err := parseFlexibleCost(raw.Cost)
	if err != nil {
		return fmt.Errorf("domain.Destination: %w", err)
	}
	d.Cost = cost
	return nil
}

// parseFlexibleDate tries the calendar-date form first, then full RFC 3339.
// Timestamps are truncated to their calendar date in UTC so a record
// written either way round-trips to the same date.
func parseFlexibleDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseFlexibleCost decodes a cost that may be a JSON number or a numeric
// string. Missing and empty-string costs are treated as zero.
func parseFlexibleCost(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("cost %s: %w", s, err)
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cost %q: %w", str, err)
		}
		return n, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("cost %s: %w", s, err)
	}
	return n, nil
}
