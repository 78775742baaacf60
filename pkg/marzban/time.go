package marzban

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"marzban-go/internal/constants"
)

// FormatQueryTime renders t in the layout the panel expects for date-range
// query parameters: wall clock only, no fractional seconds, no zone.
func FormatQueryTime(t time.Time) string {
	return t.Format(constants.QueryTimeFormat)
}

// serverTimeLayouts are tried in order when decoding panel timestamps
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	constants.QueryTimeFormat,
}

// Time is a panel timestamp. It decodes with or without fractional seconds
// and zone, and encodes in the query layout.
type Time struct {
	time.Time
}

// MarshalJSON implements json.Marshaler
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(FormatQueryTime(t.Time))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range serverTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// setTimeRange adds start and end query parameters when they are set
func setTimeRange(q url.Values, startKey string, start *time.Time, endKey string, end *time.Time) {
	if start != nil {
		q.Set(startKey, FormatQueryTime(*start))
	}
	if end != nil {
		q.Set(endKey, FormatQueryTime(*end))
	}
}
