package missing

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/testfixtures"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// Five consecutive days, Saturday 2024-01-06 to Wednesday 2024-01-10.
var (
	d0 = dualtime.Date{Year: 2024, Month: time.January, Day: 6}
	d1 = d0.AddDays(1)
	d2 = d0.AddDays(2)
	d3 = d0.AddDays(3)
	d4 = d0.AddDays(4)
)

func noon(d dualtime.Date) time.Time {
	return d.In(time.UTC).Add(12 * time.Hour)
}

func scenarioSource() *testfixtures.Source {
	src := testfixtures.NewSource()
	src.Add("WORK-1", noon(d0), 3600)
	src.Add("WORK-1", noon(d1), 1000)
	src.Add("NOWORK-1", noon(d1).Add(time.Hour), 2000)
	src.Add("NOWORK-1", noon(d2), 2600)
	src.Add("WORK-1", noon(d2).Add(time.Hour), 1000)
	src.Add("WORK-1", noon(d3), 500)
	src.Add("WORK-1", noon(d3).Add(time.Hour), 100)
	src.Add("WORK-1", noon(d3).Add(2*time.Hour), 2000)
	return src
}

func newScenarioScanner(t *testing.T, src worklog.Source) *Scanner {
	t.Helper()
	rules, err := work.NewRules(work.RulesConfig{
		ExcludeDates:       []string{d1.String()},
		IncludeDates:       []string{d0.String(), d2.String(), d3.String(), d4.String()},
		NonWorkingPatterns: []string{"NOWORK-1"},
	})
	if err != nil {
		t.Fatalf("NewRules() error = %v", err)
	}
	return NewScanner(Config{
		Source:      src,
		Rules:       rules,
		HoursPerDay: decimal.NewFromInt(1),
		OriginZone:  time.UTC,
		LocalZone:   time.UTC,
	})
}

func TestScanRange(t *testing.T) {
	tests := []struct {
		name              string
		quantity          bool
		excludeNonWorking bool
		want              []Day
	}{
		{
			name: "presence",
			want: []Day{{d4, "1"}},
		},
		{
			name:     "quantity",
			quantity: true,
			want:     []Day{{d4, "1"}, {d3, "0.3"}},
		},
		{
			name:              "quantity without non-working time",
			quantity:          true,
			excludeNonWorking: true,
			want:              []Day{{d4, "1"}, {d3, "0.3"}, {d2, "0.7"}},
		},
		{
			name:              "presence ignores the non-working flag",
			excludeNonWorking: true,
			want:              []Day{{d4, "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScenarioScanner(t, scenarioSource())
			got, err := s.ScanRange(context.Background(), d0, d4, tt.quantity, tt.excludeNonWorking)
			if err != nil {
				t.Fatalf("ScanRange() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanRangeIsDeterministic(t *testing.T) {
	src := scenarioSource()
	s := newScenarioScanner(t, src)
	ctx := context.Background()

	first, err := s.ScanRange(ctx, d0, d4, true, true)
	if err != nil {
		t.Fatalf("ScanRange() error = %v", err)
	}
	calls := src.Calls()
	second, err := s.ScanRange(ctx, d0, d4, true, true)
	if err != nil {
		t.Fatalf("ScanRange() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ScanRange() not deterministic: %v vs %v", first, second)
	}
	if src.Calls() != 2*calls {
		t.Errorf("second scan made %d calls, want %d", src.Calls()-calls, calls)
	}
}

func TestScanRangeMostRecentFirst(t *testing.T) {
	rules, _ := work.NewRules(work.RulesConfig{})
	s := NewScanner(Config{
		Source:      testfixtures.NewSource(),
		Rules:       rules,
		HoursPerDay: decimal.NewFromInt(8),
		OriginZone:  time.UTC,
	})

	// Monday 2024-01-08 to Sunday 2024-01-21.
	from := dualtime.Date{Year: 2024, Month: time.January, Day: 8}
	got, err := s.ScanRange(context.Background(), from, from.AddDays(13), false, false)
	if err != nil {
		t.Fatalf("ScanRange() error = %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("ScanRange() returned %d days, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.Before(got[i-1].Date) {
			t.Errorf("ScanRange()[%d] = %v is not before %v", i, got[i].Date, got[i-1].Date)
		}
	}
	if got[0].Missing != "8" {
		t.Errorf("ScanRange()[0].Missing = %q, want 8", got[0].Missing)
	}
}

func TestScanRangeEmptyWhenFromAfterTo(t *testing.T) {
	s := newScenarioScanner(t, scenarioSource())
	got, err := s.ScanRange(context.Background(), d4, d0, true, false)
	if err != nil || len(got) != 0 {
		t.Errorf("ScanRange(reversed) = %v, %v; want empty", got, err)
	}
}

func TestScanRangePropagatesSourceFailure(t *testing.T) {
	src := scenarioSource()
	boom := errors.New("connection reset")
	src.FailWith(boom)
	s := newScenarioScanner(t, src)

	for _, quantity := range []bool{false, true} {
		_, err := s.ScanRange(context.Background(), d0, d4, quantity, false)
		if !errors.Is(err, worklog.ErrSourceQueryFailed) || !errors.Is(err, boom) {
			t.Errorf("ScanRange(quantity=%v) error = %v, want wrapped %v", quantity, err, boom)
		}
	}
}

func TestFirstMissingDay(t *testing.T) {
	// Reference time is Wednesday 2024-01-17; the window is 01-10 to 01-16.
	today := dualtime.DateOf(testfixtures.ReferenceTime())
	window := []dualtime.Date{}
	for i := LookbackDays; i > 0; i-- {
		window = append(window, today.AddDays(-i))
	}
	friday := dualtime.Date{Year: 2024, Month: time.January, Day: 12}
	saturday := friday.AddDays(1)

	tests := []struct {
		name     string
		skip     map[dualtime.Date]bool
		excludes []string
		includes []string
		want     dualtime.Date
	}{
		{
			name: "all covered returns today",
			want: today,
		},
		{
			name: "one gap",
			skip: map[dualtime.Date]bool{friday: true},
			want: friday,
		},
		{
			name: "oldest gap wins",
			skip: map[dualtime.Date]bool{friday: true, window[0]: true},
			want: window[0],
		},
		{
			name:     "excluded gap is ignored",
			skip:     map[dualtime.Date]bool{friday: true},
			excludes: []string{friday.String()},
			want:     today,
		},
		{
			name:     "included weekend without worklog",
			skip:     map[dualtime.Date]bool{saturday: true},
			includes: []string{saturday.String()},
			want:     saturday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testfixtures.NewSource()
			for _, d := range window {
				if d.IsWeekend() || tt.skip[d] {
					continue
				}
				src.Add("WORK-1", noon(d), 600)
			}
			rules, err := work.NewRules(work.RulesConfig{ExcludeDates: tt.excludes, IncludeDates: tt.includes})
			if err != nil {
				t.Fatalf("NewRules() error = %v", err)
			}
			s := NewScanner(Config{
				Source:      src,
				Rules:       rules,
				HoursPerDay: decimal.NewFromInt(8),
				OriginZone:  time.UTC,
				LocalZone:   time.UTC,
				Now:         testfixtures.NewClock(time.Time{}).NowFunc(),
			})

			got, err := s.FirstMissingDay(context.Background())
			if err != nil {
				t.Fatalf("FirstMissingDay() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FirstMissingDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	days := make([]Day, 45)
	for i := range days {
		days[i] = Day{Date: d0.AddDays(-i), Missing: "1"}
	}

	tests := []struct {
		name      string
		page      int
		wantLen   int
		wantPage  int
		wantFirst dualtime.Date
	}{
		{"first", 1, 20, 1, d0},
		{"last partial", 3, 5, 3, d0.AddDays(-40)},
		{"past the end", 9, 5, 3, d0.AddDays(-40)},
		{"before the start", 0, 20, 1, d0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(days, tt.page)
			if len(p.Days) != tt.wantLen || p.Number != tt.wantPage || p.Pages != 3 || p.Total != 45 {
				t.Errorf("Paginate(%d) = len %d page %d/%d total %d", tt.page, len(p.Days), p.Number, p.Pages, p.Total)
			}
			if len(p.Days) > 0 && p.Days[0].Date != tt.wantFirst {
				t.Errorf("Paginate(%d) first = %v, want %v", tt.page, p.Days[0].Date, tt.wantFirst)
			}
		})
	}

	empty := Paginate(nil, 1)
	if len(empty.Days) != 0 || empty.Pages != 0 {
		t.Errorf("Paginate(nil) = %+v", empty)
	}
}
