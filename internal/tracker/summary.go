package tracker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/logging"
	"github.com/worktally/internal/work"
)

const hundred = 100

// Unit is the logged and expected time of one day, week or month.
type Unit struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	ActualSeconds int64 `json:"actual_seconds"`
	// FilteredActualSeconds excludes non-working worklogs. It is nil when no
	// non-working patterns are configured.
	FilteredActualSeconds *int64 `json:"filtered_actual_seconds,omitempty"`
	ExpectedSeconds       int64  `json:"expected_seconds"`

	IndicatorPercent        float64 `json:"indicator_percent"`
	FilteredRealWorkPercent float64 `json:"filtered_real_work_percent"`
	FilteredNonWorkPercent  float64 `json:"filtered_non_work_percent"`
	// FilteredPercent is actual over expected as a ratio, not a percentage.
	FilteredPercent float64 `json:"filtered_percent"`
	// PercentUndefined is set when nothing is expected; the percentages are then 0.
	PercentUndefined bool `json:"percent_undefined"`

	Summary           string `json:"summary"`
	FilteredSummary   string `json:"filtered_summary"`
	ExpectedFormatted string `json:"expected_formatted"`
	NonWorkFormatted  string `json:"non_work_formatted"`
	// Remaining is expected minus actual, rounded to two fragments. Negative
	// values are overtime.
	Remaining string `json:"remaining"`
}

// NonWorkSeconds returns the logged time attributed to non-working labels, or
// all logged time when there is no filtered total.
func (u Unit) NonWorkSeconds() int64 {
	if u.FilteredActualSeconds == nil {
		return u.ActualSeconds
	}
	return u.ActualSeconds - *u.FilteredActualSeconds
}

// Summary is the day, week and month around a reference moment.
type Summary struct {
	Date  dualtime.Date `json:"date"`
	Day   Unit          `json:"day"`
	Week  Unit          `json:"week"`
	Month Unit          `json:"month"`

	// DailyPercent is the day's logged hours over hours per day, as a ratio.
	DailyPercent            float64 `json:"daily_percent"`
	HoursPerDayFormatted    string  `json:"hours_per_day_formatted"`
	DaySumIndustryFormatted string  `json:"day_sum_industry_formatted"`
}

// DaySeconds is the expected logged time on one workday.
func (t *Tracker) DaySeconds() int64 {
	return work.DaySeconds(t.hoursPerDay)
}

// RealWorkDaysInWeek is days per week adjusted by the overrides in d's week.
func (t *Tracker) RealWorkDaysInWeek(d dualtime.Date) decimal.Decimal {
	delta := t.rules.CountOverrideDelta(t.rules.WeekDates(d))
	return t.daysPerWeek.Add(decimal.NewFromInt(int64(delta)))
}

// ExpectedWeekSeconds is the expected logged time in d's week.
func (t *Tracker) ExpectedWeekSeconds(d dualtime.Date) int64 {
	return t.RealWorkDaysInWeek(d).Mul(decimal.NewFromInt(t.DaySeconds())).IntPart()
}

// RealWorkDaysInMonth counts the month's days, adds the includes, and takes
// away the excludes and every weekend day without an include.
func (t *Tracker) RealWorkDaysInMonth(d dualtime.Date) int {
	first := d.FirstOfMonth()
	n := dualtime.DaysIn(d.Year, d.Month)

	nonWork := 0
	for i := 0; i < n; i++ {
		day := first.AddDays(i)
		if day.IsWeekend() && !t.rules.IsIncluded(day) {
			nonWork++
		}
	}
	included := len(t.rules.IncludeDaysOfMonth(d))
	excluded := len(t.rules.ExcludeDaysOfMonth(d))
	return n + included - excluded - nonWork
}

// ExpectedMonthSeconds is the expected logged time in d's month.
func (t *Tracker) ExpectedMonthSeconds(d dualtime.Date) int64 {
	return int64(t.RealWorkDaysInMonth(d)) * t.DaySeconds()
}

// Summary computes the day, week and month containing ref. The windows start
// at midnight on the origin clock; every window is queried on its own.
func (t *Tracker) Summary(ctx context.Context, ref dualtime.Instant) (*Summary, error) {
	logger := logging.Component(ctx, t.logger, "tracker", "summary")

	dayStart := dualtime.DayStart(ref.Origin(), t.origin)
	date := dualtime.DateOf(dayStart)
	weekStart := t.rules.WeekStart(date).In(t.origin)
	monthStart := date.FirstOfMonth().In(t.origin)

	day, err := t.unit(ctx, dayStart, dayStart.AddDate(0, 0, 1), t.DaySeconds())
	if err != nil {
		return nil, err
	}
	week, err := t.unit(ctx, weekStart, weekStart.AddDate(0, 0, 7), t.ExpectedWeekSeconds(date))
	if err != nil {
		return nil, err
	}
	month, err := t.unit(ctx, monthStart, monthStart.AddDate(0, 1, 0), t.ExpectedMonthSeconds(date))
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Date:                    date,
		Day:                     day,
		Week:                    week,
		Month:                   month,
		HoursPerDayFormatted:    t.format.HoursPerDayIndustry(),
		DaySumIndustryFormatted: t.format.IndustryDuration(day.ActualSeconds),
	}
	if t.hoursPerDay.IsPositive() {
		s.DailyPercent = decimal.NewFromInt(day.ActualSeconds).
			Div(decimal.NewFromInt(work.SecondsPerHour)).
			Div(t.hoursPerDay).
			InexactFloat64()
	}

	logger.DebugContext(ctx, "summary computed",
		"date", date.String(),
		"day_actual", day.ActualSeconds,
		"week_actual", week.ActualSeconds,
		"month_actual", month.ActualSeconds,
	)
	return s, nil
}

// SummaryForDate computes the summary of d as a day on the origin clock.
func (t *Tracker) SummaryForDate(ctx context.Context, d dualtime.Date) (*Summary, error) {
	noon := d.In(t.origin).Add(12 * time.Hour)
	return t.Summary(ctx, dualtime.FromOrigin(noon, t.origin, t.local))
}

func (t *Tracker) unit(ctx context.Context, start, end time.Time, expected int64) (Unit, error) {
	from := dualtime.FromOrigin(start, t.origin, t.local)
	to := dualtime.FromOrigin(end, t.origin, t.local)

	actual, err := t.source.TotalSeconds(ctx, from, to, nil)
	if err != nil {
		return Unit{}, err
	}

	var filtered *int64
	if patterns := t.rules.NonWorkingPatterns(); patterns != nil {
		f, err := t.source.TotalSeconds(ctx, from, to, patterns)
		if err != nil {
			return Unit{}, err
		}
		filtered = &f
	}

	u := Unit{
		Start:                 start,
		End:                   end,
		ActualSeconds:         actual,
		FilteredActualSeconds: filtered,
		ExpectedSeconds:       expected,
		Summary:               t.format.ExactDuration(actual),
		ExpectedFormatted:     t.format.ExactDuration(expected),
		Remaining:             t.format.RoundedDuration(expected - actual),
	}
	if filtered != nil {
		u.FilteredSummary = t.format.ExactDuration(*filtered)
	}
	u.NonWorkFormatted = t.format.ExactDuration(u.NonWorkSeconds())
	applyPercentages(&u)
	return u, nil
}

func applyPercentages(u *Unit) {
	if u.ExpectedSeconds == 0 {
		u.PercentUndefined = true
		return
	}
	expected := float64(u.ExpectedSeconds)
	actual := float64(u.ActualSeconds)

	u.IndicatorPercent = actual / expected * hundred
	u.FilteredPercent = actual / expected
	if u.FilteredActualSeconds != nil {
		u.FilteredRealWorkPercent = float64(*u.FilteredActualSeconds) / expected * hundred
	}
	nonWork := float64(u.NonWorkSeconds()) / expected * hundred
	u.FilteredNonWorkPercent = correctNonWorkPercent(u.FilteredRealWorkPercent, nonWork)
}

// correctNonWorkPercent caps real plus non-working at 100 by shrinking the
// non-working share. Sums at or below 100 are left alone.
func correctNonWorkPercent(realWork, nonWork float64) float64 {
	if sum := realWork + nonWork; sum > hundred {
		return nonWork - (sum - hundred)
	}
	return nonWork
}
