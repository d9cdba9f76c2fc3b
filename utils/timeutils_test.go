package utils

import (
	"math"
	"testing"
	"time"
)

func TestIso8601_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("EET", 2*3600)
	in := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)

	if got := Iso8601(in); got != "2024-05-01T10:00:00Z" {
		t.Errorf("expected UTC conversion, got %s", got)
	}
}

func TestIso8601Nano_KeepsSubSecond(t *testing.T) {
	a := time.Date(2024, 5, 1, 10, 0, 0, 16e6, time.UTC)
	b := a.Add(16 * time.Millisecond)

	if got := Iso8601Nano(a); got != "2024-05-01T10:00:00.016Z" {
		t.Errorf("unexpected format %s", got)
	}
	if Iso8601Nano(a) == Iso8601Nano(b) {
		t.Errorf("frames 16ms apart must format differently")
	}
}

func TestParseIso8601(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", input: "2024-05-01T10:00:00Z", want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "fractional", input: "2024-05-01T10:00:00.5Z", want: time.Date(2024, 5, 1, 10, 0, 0, 5e8, time.UTC)},
		{name: "unix seconds", input: "1696320000", want: time.Unix(1696320000, 0).UTC()},
		{name: "unix overflow", input: "99999999999999999999", wantErr: true},
		{name: "signed unix", input: "+1696320000", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIso8601(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFromUnixSeconds_ZeroStaysZero(t *testing.T) {
	if !FromUnixSeconds(0).IsZero() {
		t.Error("zero feed timestamp should map to zero time")
	}
	if got := FromUnixSeconds(1696320000); !got.Equal(time.Unix(1696320000, 0)) {
		t.Errorf("unexpected conversion: %v", got)
	}
}

func TestValidUntil(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if got := ValidUntil(base, 30*time.Second); got != "2024-05-01T10:00:30Z" {
		t.Errorf("expected base+30s, got %s", got)
	}
	if got := ValidUntil(time.Time{}, time.Second); got != "" {
		t.Errorf("zero base should yield empty string, got %s", got)
	}
	if got := ValidUntil(base, 0); got != "" {
		t.Errorf("zero interval should yield empty string, got %s", got)
	}
}

func TestScaleDuration(t *testing.T) {
	tests := []struct {
		name   string
		d      time.Duration
		factor float64
		want   time.Duration
	}{
		{name: "real time", d: 16 * time.Millisecond, factor: 1, want: 16 * time.Millisecond},
		{name: "double", d: 16 * time.Millisecond, factor: 2, want: 32 * time.Millisecond},
		{name: "half", d: 10 * time.Millisecond, factor: 0.5, want: 5 * time.Millisecond},
		{name: "paused", d: time.Second, factor: 0, want: 0},
		{name: "negative", d: time.Second, factor: -3, want: 0},
		{name: "huge saturates", d: 16 * time.Millisecond, factor: 1e12, want: time.Duration(math.MaxInt64)},
		{name: "infinite saturates", d: 16 * time.Millisecond, factor: math.Inf(1), want: time.Duration(math.MaxInt64)},
		{name: "nan", d: time.Second, factor: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaleDuration(tt.d, tt.factor); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
