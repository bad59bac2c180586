package models

import (
	// Go Internal Packages
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Instant is a point in time that unmarshals from either wire shape the backend has used:
// an ISO-8601 string or a [year, month, day, hour, minute, second, nanos] tuple.
// Values without a zone are taken as UTC wall clock. It always marshals as RFC 3339.
type Instant struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NewInstant wraps t in UTC.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t.UTC()}
}

// ParseInstant parses an ISO-8601 timestamp in any of the accepted layouts.
func ParseInstant(s string) (Instant, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewInstant(t), nil
		}
	}
	return Instant{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// InstantFromTuple converts the 7-element numeric form. Shorter tuples are accepted down to
// [year, month, day]; missing fields are zero.
func InstantFromTuple(parts []int64) (Instant, error) {
	if len(parts) < 3 || len(parts) > 7 {
		return Instant{}, fmt.Errorf("timestamp tuple must have 3 to 7 elements, got %d", len(parts))
	}
	var f [7]int64
	copy(f[:], parts)
	if f[1] < 1 || f[1] > 12 {
		return Instant{}, fmt.Errorf("timestamp tuple month %d out of range", f[1])
	}
	t := time.Date(int(f[0]), time.Month(f[1]), int(f[2]), int(f[3]), int(f[4]), int(f[5]), int(f[6]), time.UTC)
	return Instant{Time: t}, nil
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.UTC().Format(time.RFC3339Nano))
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = Instant{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*i = Instant{}
			return nil
		}
		parsed, err := ParseInstant(s)
		if err != nil {
			return err
		}
		*i = parsed
		return nil
	case '[':
		var parts []int64
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("timestamp tuple: %w", err)
		}
		parsed, err := InstantFromTuple(parts)
		if err != nil {
			return err
		}
		*i = parsed
		return nil
	default:
		var millis int64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("unsupported timestamp %s", string(data))
		}
		*i = NewInstant(time.UnixMilli(millis))
		return nil
	}
}
