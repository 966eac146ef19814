package dualtime

import (
	"encoding/json"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s not available: %v", name, err)
	}
	return loc
}

func TestDayStart(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")

	tests := []struct {
		name string
		in   time.Time
		zone *time.Location
		want time.Time
	}{
		{
			name: "utc afternoon",
			in:   time.Date(2024, 3, 15, 17, 45, 12, 999, time.UTC),
			zone: time.UTC,
			want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "utc evening is next day in tokyo",
			in:   time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
			zone: tokyo,
			want: time.Date(2024, 3, 16, 0, 0, 0, 0, tokyo),
		},
		{
			name: "already midnight",
			in:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			zone: time.UTC,
			want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayStart(tt.in, tt.zone)
			if !got.Equal(tt.want) {
				t.Errorf("DayStart(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != tt.zone {
				t.Errorf("DayStart location = %v, want %v", got.Location(), tt.zone)
			}
		})
	}
}

func TestFromLocal(t *testing.T) {
	origin := time.UTC
	local := mustLoad(t, "Asia/Tokyo")

	// 2024-03-16 01:30 in Tokyo is 2024-03-15 16:30 UTC.
	moment := time.Date(2024, 3, 16, 1, 30, 0, 0, local)
	i := FromLocal(moment, origin, local)

	if !i.Instant().Equal(moment) {
		t.Errorf("Instant() = %v, want %v", i.Instant(), moment)
	}
	wantLocalStart := time.Date(2024, 3, 16, 0, 0, 0, 0, local)
	if !i.LocalDayStart().Equal(wantLocalStart) {
		t.Errorf("LocalDayStart() = %v, want %v", i.LocalDayStart(), wantLocalStart)
	}
	// Origin day start is the local day start projected, not the UTC midnight.
	if !i.OriginDayStart().Equal(wantLocalStart) {
		t.Errorf("OriginDayStart() = %v, want %v", i.OriginDayStart(), wantLocalStart)
	}
	if i.OriginDayStart().Location() != origin {
		t.Errorf("OriginDayStart location = %v, want %v", i.OriginDayStart().Location(), origin)
	}
	if got := i.LocalDate(); got != (Date{2024, time.March, 16}) {
		t.Errorf("LocalDate() = %v, want 2024-03-16", got)
	}
	if got := i.OriginDate(); got != (Date{2024, time.March, 15}) {
		t.Errorf("OriginDate() = %v, want 2024-03-15", got)
	}
}

func TestFromOrigin(t *testing.T) {
	origin := time.UTC
	local := mustLoad(t, "Asia/Tokyo")

	moment := time.Date(2024, 3, 15, 16, 30, 0, 0, origin)
	i := FromOrigin(moment, origin, local)

	wantOriginStart := time.Date(2024, 3, 15, 0, 0, 0, 0, origin)
	if !i.OriginDayStart().Equal(wantOriginStart) {
		t.Errorf("OriginDayStart() = %v, want %v", i.OriginDayStart(), wantOriginStart)
	}
	if !i.LocalDayStart().Equal(wantOriginStart) {
		t.Errorf("LocalDayStart() = %v, want %v", i.LocalDayStart(), wantOriginStart)
	}
	if i.Local().Location() != local {
		t.Errorf("Local() location = %v, want %v", i.Local().Location(), local)
	}
}

func TestConstructorsDisagree(t *testing.T) {
	origin := time.UTC
	local := mustLoad(t, "Asia/Tokyo")
	moment := time.Date(2024, 3, 15, 16, 30, 0, 0, origin)

	a := FromLocal(moment, origin, local)
	b := FromOrigin(moment, origin, local)

	if !a.Instant().Equal(b.Instant()) {
		t.Fatalf("instants differ: %v vs %v", a.Instant(), b.Instant())
	}
	if a.OriginDayStart().Equal(b.OriginDayStart()) {
		t.Errorf("OriginDayStart should differ between constructors, both %v", a.OriginDayStart())
	}
}

func TestSameZoneConstructorsAgree(t *testing.T) {
	moment := time.Date(2024, 3, 15, 16, 30, 0, 0, time.UTC)
	a := FromLocal(moment, time.UTC, time.UTC)
	b := FromOrigin(moment, time.UTC, time.UTC)

	if !a.OriginDayStart().Equal(b.OriginDayStart()) {
		t.Errorf("OriginDayStart: %v vs %v", a.OriginDayStart(), b.OriginDayStart())
	}
	if !a.LocalDayStart().Equal(b.LocalDayStart()) {
		t.Errorf("LocalDayStart: %v vs %v", a.LocalDayStart(), b.LocalDayStart())
	}
}

func TestDate(t *testing.T) {
	d := Date{2024, time.February, 28}

	if got := d.AddDays(1); got != (Date{2024, time.February, 29}) {
		t.Errorf("AddDays(1) = %v, want 2024-02-29", got)
	}
	if got := d.AddDays(2); got != (Date{2024, time.March, 1}) {
		t.Errorf("AddDays(2) = %v, want 2024-03-01", got)
	}
	if got := d.AddDays(-28); got != (Date{2024, time.January, 31}) {
		t.Errorf("AddDays(-28) = %v, want 2024-01-31", got)
	}
	if d.Weekday() != time.Wednesday {
		t.Errorf("Weekday() = %v, want Wednesday", d.Weekday())
	}
	if d.String() != "2024-02-28" {
		t.Errorf("String() = %q, want 2024-02-28", d.String())
	}
	if !d.Before(d.AddDays(1)) || d.After(d.AddDays(1)) {
		t.Error("Before/After ordering is wrong")
	}
	if !d.Equal(NewDate(2024, time.March, -1)) {
		t.Errorf("NewDate normalization mismatch: %v", NewDate(2024, time.March, -1))
	}

	parsed, err := ParseDate("2024-02-28")
	if err != nil || parsed != d {
		t.Errorf("ParseDate() = %v, %v; want %v", parsed, err, d)
	}
	if _, err := ParseDate("28.02.2024"); err == nil {
		t.Error("ParseDate() expected error")
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{2024, time.January, 6}
	b, err := json.Marshal(map[string]Date{"date": d})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"date":"2024-01-06"}` {
		t.Errorf("Marshal() = %s", b)
	}

	var out map[string]Date
	if err := json.Unmarshal(b, &out); err != nil || out["date"] != d {
		t.Errorf("Unmarshal() = %v, %v; want %v", out, err, d)
	}
	if err := json.Unmarshal([]byte(`{"date":"06.01.2024"}`), &out); err == nil {
		t.Error("Unmarshal() expected error for malformed date")
	}
}
