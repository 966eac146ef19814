package durationfmt

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newFormatter() Formatter {
	return New(decimal.NewFromInt(8), decimal.NewFromInt(5))
}

func TestExactDuration(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{"zero", 0, "0m"},
		{"under a minute", 59, "0m"},
		{"minutes", 30 * 60, "30m"},
		{"hours and minutes", 90 * 60, "1h 30m"},
		{"one working day", 8 * 3600, "1d"},
		{"week day hour minute", (40+16+3)*3600 + 30*60, "1w 2d 3h 30m"},
		{"skips zero fragments", 40*3600 + 5*60, "1w 5m"},
		{"negative", -3600, "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ExactDuration(tt.seconds); got != tt.want {
				t.Errorf("ExactDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestExactDurationFractionalDay(t *testing.T) {
	f := New(decimal.RequireFromString("7.5"), decimal.NewFromInt(5))
	if got := f.ExactDuration(9 * 3600); got != "1d 1h 30m" {
		t.Errorf("ExactDuration(9h) = %q, want %q", got, "1d 1h 30m")
	}
}

func TestRoundedDuration(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{"zero", 0, "0m"},
		{"two fragments", 90 * 60, "1h 30m"},
		{"drops minutes", (40+16+3)*3600 + 30*60, "~1w 2d"},
		{"gap after first", 40*3600 + 3*3600, "~1w"},
		{"single", 8 * 3600, "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.RoundedDuration(tt.seconds); got != tt.want {
				t.Errorf("RoundedDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestIndustryDuration(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0h"},
		{3600, "1h"},
		{27000, "7.5h"},
		{3599, "0.9h"},
		{8*3600 + 359, "8h"},
	}
	for _, tt := range tests {
		if got := f.IndustryDuration(tt.seconds); got != tt.want {
			t.Errorf("IndustryDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}

	if got := New(decimal.RequireFromString("7.75"), decimal.NewFromInt(5)).HoursPerDayIndustry(); got != "7.7h" {
		t.Errorf("HoursPerDayIndustry() = %q, want 7.7h", got)
	}
}

func TestMissingHours(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{3600, "1"},
		{1000, "0.3"},
		{2600, "0.7"},
		{180, "0"},
		{5400, "1.5"},
		{28800, "8"},
	}
	for _, tt := range tests {
		if got := MissingHours(tt.seconds); got != tt.want {
			t.Errorf("MissingHours(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestOneDecimalHalfEven(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.25", "0.2"},
		{"0.35", "0.4"},
		{"7.5", "7.5"},
	}
	for _, tt := range tests {
		if got := OneDecimal(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("OneDecimal(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	f := newFormatter()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"30m", 1800, false},
		{"1h30m", 5400, false},
		{"1h 30m", 5400, false},
		{"1.5h", 5400, false},
		{"1d", 28800, false},
		{"1w 2d 3h 30m", (40+16+3)*3600 + 1800, false},
		{"2H", 7200, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1h x", 0, true},
		{"0m", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := f.Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
