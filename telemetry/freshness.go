package telemetry

import "time"

// Freshness describes how recently the calculator produced a snapshot.
//
// Freshness is a string type so it serialises directly into the
// GET /api/status response.
type Freshness string

const (
	// FreshnessOnline means the snapshot is less than 5 seconds old.
	FreshnessOnline Freshness = "online"

	// FreshnessSlow means the snapshot is less than 30 seconds old.
	FreshnessSlow Freshness = "slow"

	// FreshnessOffline means the calculator has not written for 30 seconds or more.
	FreshnessOffline Freshness = "offline"

	// FreshnessUnknown means the snapshot timestamp could not be parsed.
	FreshnessUnknown Freshness = "unknown"
)

const (
	onlineThreshold = 5 * time.Second
	slowThreshold   = 30 * time.Second
)

// String implements fmt.Stringer.
func (f Freshness) String() string {
	return string(f)
}

// ClassifyAge maps a snapshot age onto a [Freshness] value.
func ClassifyAge(age time.Duration) Freshness {
	switch {
	case age < onlineThreshold:
		return FreshnessOnline
	case age < slowThreshold:
		return FreshnessSlow
	default:
		return FreshnessOffline
	}
}

// Classify parses lastUpdate and classifies its age relative to now.
func Classify(lastUpdate string, now time.Time) Freshness {
	t, err := ParseTimestamp(lastUpdate, now.Location())
	if err != nil {
		return FreshnessUnknown
	}
	return ClassifyAge(now.Sub(t))
}
