package widget

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func present(v any) field { return field{value: v, present: true} }

var absent = field{}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{12.5, "12.5"},
		{3, "3"},
		{-4.25, "-4.25"},
		{0.1, "0.1"},
		{123456789012, "123456789012"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in), "formatNumber(%v)", tt.in)
	}
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "", displayText(absent))
	assert.Equal(t, "", displayText(present(nil)))
	assert.Equal(t, "12.5", displayText(present(12.5)))
	assert.Equal(t, "0", displayText(present(0.0)))
	assert.Equal(t, "00:12:03", displayText(present("00:12:03")))
	assert.Equal(t, "true", displayText(present(true)))
	assert.Equal(t, "1,2,", displayText(present([]any{1.0, 2.0, nil})))
	assert.Equal(t, "[object Object]", displayText(present(map[string]any{"a": 1.0})))
}

func TestCadenceText(t *testing.T) {
	tests := []struct {
		name string
		in   field
		want string
	}{
		{"fraction truncated", present(87.6), "87.0"},
		{"integer", present(90.0), "90.0"},
		{"zero", present(0.0), "0.0"},
		{"negative fraction", present(-3.7), "-3.0"},
		{"negative zero", present(-0.4), "0.0"},
		{"numeric string", present("92.9"), "92.0"},
		{"leading digits", present("  64rpm"), "64.0"},
		{"hex string", present("0x1F"), "31.0"},
		{"exponent form", present(1e21), "1.0"},
		{"not a number", present("fast"), "NaN"},
		{"null", present(nil), "NaN"},
		{"missing", absent, "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cadenceText(tt.in))
		})
	}
}

func TestGaugeValue(t *testing.T) {
	tests := []struct {
		name string
		in   field
		want string
	}{
		{"ratio", present(87.0), "72.5"},
		{"fraction kept", present(87.6), "73"},
		{"reference cadence", present(120.0), "100"},
		{"clamped", present(500.0), "100"},
		{"half", present(60.0), "50"},
		{"zero", present(0.0), "0"},
		{"no lower clamp", present(-60.0), "-50"},
		{"numeric string", present("90"), "75"},
		{"null is zero", present(nil), "0"},
		{"missing", absent, "NaN"},
		{"garbage", present("fast"), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(gaugeValue(tt.in)))
		})
	}
}

func TestGaugeValue_NeverExceedsMax(t *testing.T) {
	for _, c := range []float64{120, 120.0001, 240, 1e6, math.Inf(1)} {
		assert.LessOrEqual(t, gaugeValue(present(c)), gaugeMax, "cadence %v", c)
	}
}

func TestLastUpdateText(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name string
		in   field
		loc  *time.Location
		want string
	}{
		{"local timestamp", present("2024-01-05T13:04:05.123456"), jst, "2024/1/5 13:04:05"},
		{"unpadded hour", present("2024-01-05T09:04:05"), jst, "2024/1/5 9:04:05"},
		{"zoned timestamp", present("2024-01-05T00:00:00Z"), jst, "2024/1/5 9:00:00"},
		{"date only is UTC", present("2024-01-05"), jst, "2024/1/5 9:00:00"},
		{"epoch millis", present(0.0), time.UTC, "1970/1/1 0:00:00"},
		{"epoch millis fraction", present(1704413045999.9), time.UTC, "2024/1/5 0:04:05"},
		{"null is epoch", present(nil), time.UTC, "1970/1/1 0:00:00"},
		{"garbage", present("yesterday"), jst, invalidDate},
		{"missing", absent, jst, invalidDate},
		{"out of range", present(9e15), jst, invalidDate},
		{"object", present(map[string]any{}), jst, invalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lastUpdateText(tt.in, tt.loc))
		})
	}
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, 0.0, toNumber(present("")))
	assert.Equal(t, 1.0, toNumber(present(true)))
	assert.Equal(t, 42.5, toNumber(present(" 42.5 ")))
	assert.Equal(t, 255.0, toNumber(present("0xff")))
	assert.True(t, math.IsInf(toNumber(present("Infinity")), 1))
	assert.True(t, math.IsNaN(toNumber(present("inf"))))
	assert.True(t, math.IsNaN(toNumber(present("1_000"))))
	assert.True(t, math.IsNaN(toNumber(absent)))
}
