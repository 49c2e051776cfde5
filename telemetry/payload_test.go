package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 59 * time.Second, "00:00:59"},
		{"minutes", 12*time.Minute + 3*time.Second, "00:12:03"},
		{"one hour", time.Hour, "1:00:00"},
		{"hours", 13*time.Hour + 5*time.Minute + 9*time.Second, "13:05:09"},
		{"fraction truncated", 1500 * time.Millisecond, "00:00:01"},
		{"negative", -time.Second, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)

	got, err := ParseTimestamp("2024-01-05T13:04:05.123456", loc)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	want := time.Date(2024, 1, 5, 13, 4, 5, 123456000, loc)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp() = %v, want %v", got, want)
	}

	got, err = ParseTimestamp("2024-01-05T04:04:05Z", loc)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !got.Equal(want.Truncate(time.Second)) {
		t.Errorf("ParseTimestamp(UTC) = %v, want %v", got, want.Truncate(time.Second))
	}

	for _, bad := range []string{"", "yesterday", "2024-13-45T00:00:00"} {
		if _, err := ParseTimestamp(bad, loc); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", bad)
		}
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 250000000, time.Local)
	parsed, err := ParseTimestamp(FormatTimestamp(now), time.Local)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("round trip = %v, want %v", parsed, now)
	}
}

func TestDefaultPayload(t *testing.T) {
	now := time.Now()
	p := DefaultPayload(now)
	if p.ElapsedTime != "0:00:00" {
		t.Errorf("ElapsedTime = %q, want %q", p.ElapsedTime, "0:00:00")
	}
	if p.Speed != 0 || p.Distance != 0 || p.Cadence != 0 || p.Calories != 0 || p.Num != 0 {
		t.Errorf("DefaultPayload() has non-zero metrics: %+v", p)
	}
	if p.LastUpdate != FormatTimestamp(now) {
		t.Errorf("LastUpdate = %q, want %q", p.LastUpdate, FormatTimestamp(now))
	}
}

func TestDataResponse_FlattensPayload(t *testing.T) {
	resp := DataResponse{
		Payload: Payload{Speed: 12.5, ElapsedTime: "00:01:00"},
		DataAge: 1.5,
		IsFresh: true,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"speed", "distance", "elapsed_time", "calories", "cadence", "last_update", "data_age", "is_fresh"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
}

func TestResetResult_Succeeded(t *testing.T) {
	if !NewResetResult("success", "ok").Succeeded() {
		t.Error("Succeeded() = false for success status")
	}
	if NewResetResult("error", "boom").Succeeded() {
		t.Error("Succeeded() = true for error status")
	}
	if (ResetResult{Status: "Success"}).Succeeded() {
		t.Error("Succeeded() should be case sensitive")
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	tests := []struct {
		name       string
		lastUpdate string
		want       Freshness
	}{
		{"just now", FormatTimestamp(now.Add(-time.Second)), FreshnessOnline},
		{"slow", FormatTimestamp(now.Add(-10 * time.Second)), FreshnessSlow},
		{"boundary slow", FormatTimestamp(now.Add(-5 * time.Second)), FreshnessSlow},
		{"offline", FormatTimestamp(now.Add(-30 * time.Second)), FreshnessOffline},
		{"garbage", "not a time", FreshnessUnknown},
		{"empty", "", FreshnessUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.lastUpdate, now); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.lastUpdate, got, tt.want)
			}
		})
	}
}
