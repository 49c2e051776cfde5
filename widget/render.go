package widget

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/cadenceboard/telemetry"
)

// cadenceReference is the cadence (rpm) that fills the gauge.
const cadenceReference = 120.0

// gaugeMax is the upper clamp of the gauge property.
const gaugeMax = 100.0

// maxDateMillis is the largest absolute epoch offset a browser date accepts.
const maxDateMillis = 8.64e15

// invalidDate is rendered when the last_update value cannot be parsed.
const invalidDate = "Invalid Date"

// field is one decoded payload value. present is false when the key was
// missing from the JSON object; a JSON null is present with a nil value.
type field struct {
	value   any
	present bool
}

func lookup(obj map[string]any, key string) field {
	v, ok := obj[key]
	return field{value: v, present: ok}
}

// displayText renders a value the way an element's text content shows it:
// missing and null values become empty text.
func displayText(f field) string {
	if !f.present || f.value == nil {
		return ""
	}
	return stringify(f.value)
}

// stringify converts a decoded JSON value to its script string form.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			if e != nil {
				parts[i] = stringify(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// formatNumber renders f in its shortest round-tripping decimal form,
// switching to exponent notation outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toNumber applies numeric coercion to a decoded JSON value.
func toNumber(f field) float64 {
	if !f.present {
		return math.NaN()
	}
	switch t := f.value.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case float64:
		return t
	case string:
		return parseNumericString(t)
	case []any:
		return parseNumericString(stringify(t))
	default:
		return math.NaN()
	}
}

func parseNumericString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// parseLeadingInt parses the leading decimal integer of the value's string
// form, discarding anything after it ("87.6" -> 87, "92rpm" -> 92).
func parseLeadingInt(f field) float64 {
	s := "undefined"
	if f.present {
		s = stringify(f.value)
	}
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && digitValue(s[end]) < base {
		end++
	}
	if end == 0 {
		return math.NaN()
	}

	var n float64
	for i := 0; i < end; i++ {
		n = n*float64(base) + float64(digitValue(s[i]))
	}
	if neg {
		n = -n
	}
	return n
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 36
	}
}

// cadenceText renders the cadence as an integer with one decimal place.
// The fractional part of the source value is dropped before formatting, so
// 87.6 renders as "87.0".
func cadenceText(f field) string {
	n := parseLeadingInt(f)
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.Abs(n) >= 1e21 {
		return formatNumber(n)
	}
	if n == 0 {
		n = 0 // drop negative zero
	}
	return strconv.FormatFloat(n, 'f', 1, 64)
}

// gaugeValue is the cadence as a percentage of the reference cadence,
// clamped at 100. There is no lower clamp.
func gaugeValue(f field) float64 {
	rate := toNumber(f) / cadenceReference * 100
	if math.IsNaN(rate) {
		return rate
	}
	return math.Min(rate, gaugeMax)
}

// parseDate interprets last_update as a browser date constructor would:
// numbers are epoch milliseconds, strings are ISO-8601 timestamps.
func parseDate(f field, loc *time.Location) (time.Time, bool) {
	if !f.present {
		return time.Time{}, false
	}

	switch t := f.value.(type) {
	case nil:
		return fromMillis(0, loc)
	case bool:
		if t {
			return fromMillis(1, loc)
		}
		return fromMillis(0, loc)
	case float64:
		return fromMillis(t, loc)
	case string:
		return parseDateString(t, loc)
	default:
		return time.Time{}, false
	}
}

func fromMillis(ms float64, loc *time.Location) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxDateMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Trunc(ms))).In(loc), true
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)

	// date-only forms are UTC
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.In(loc), true
	}

	t, err := telemetry.ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// formatJapanese renders t as Japanese-locale date and time:
// year/month/day hour:minute:second with unpadded month, day and hour.
func formatJapanese(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// lastUpdateText renders the last_update value for display.
func lastUpdateText(f field, loc *time.Location) string {
	t, ok := parseDate(f, loc)
	if !ok {
		return invalidDate
	}
	return formatJapanese(t)
}
