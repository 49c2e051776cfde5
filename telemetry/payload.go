// Package telemetry defines the wire types shared by the CadenceBoard
// calculator, server and polling widget.
//
// [Payload] is the ride snapshot written by the calculator and served from
// GET /api/data. [ResetResult] is the body returned by POST /api/reset.
package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout used for [Payload.LastUpdate].
//
// Timestamps carry no zone offset and are interpreted in the local zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ResetStatusSuccess is the only [ResetResult.Status] value treated as success.
const ResetStatusSuccess = "success"

// Payload is one snapshot of the current riding session.
type Payload struct {
	// Speed is the current speed in km/h, rounded to one decimal.
	Speed float64 `json:"speed"`

	// Distance is the session distance in km, rounded to two decimals.
	Distance float64 `json:"distance"`

	// ElapsedTime is the session duration formatted as H:MM:SS.
	ElapsedTime string `json:"elapsed_time"`

	// Calories is the estimated energy spent in kcal.
	Calories float64 `json:"calories"`

	// Cadence is the rolling rotations per minute.
	Cadence float64 `json:"cadence"`

	// Num is the raw rotation count for the session.
	Num float64 `json:"num"`

	// LastUpdate is the time the snapshot was computed, see [TimestampLayout].
	LastUpdate string `json:"last_update"`
}

// DataResponse is the body of GET /api/data: the snapshot plus its age.
type DataResponse struct {
	Payload

	// DataAge is the snapshot age in seconds (999 if unknown).
	DataAge float64 `json:"data_age"`

	// IsFresh reports whether the snapshot is younger than the freshness threshold.
	IsFresh bool `json:"is_fresh"`
}

// ResetResult is the body returned by POST /api/reset.
type ResetResult struct {
	Status string `json:"status"`

	// Message is human readable; shown to the user only on failure.
	// nil when the field was absent from the response.
	Message *string `json:"message,omitempty"`
}

// Succeeded reports whether the reset was accepted.
func (r ResetResult) Succeeded() bool {
	return r.Status == ResetStatusSuccess
}

// NewResetResult builds a [ResetResult] with a message.
func NewResetResult(status, message string) ResetResult {
	return ResetResult{Status: status, Message: &message}
}

// DefaultPayload returns the zero snapshot served when nothing has been
// recorded yet.
func DefaultPayload(now time.Time) Payload {
	return Payload{
		ElapsedTime: "0:00:00",
		LastUpdate:  FormatTimestamp(now),
	}
}

// FormatTimestamp formats t with [TimestampLayout] in t's own zone.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp as written by the calculator.
// Values without a zone offset are interpreted in loc (time.Local if nil).
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatElapsed renders a session duration as H:MM:SS, with the hour field
// zero-padded to two digits while under one hour (00:MM:SS).
func FormatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h == 0 {
		return fmt.Sprintf("00:%02d:%02d", m, s)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
