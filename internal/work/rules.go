package work

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worktally/internal/dualtime"
)

// =============================================================================
// WORK RULES DEFAULTS
// =============================================================================
// Used when the configuration leaves a value unset.
// =============================================================================

const (
	// DefaultHoursPerDay - expected logged hours on a workday
	DefaultHoursPerDay = 8

	// DefaultDaysPerWeek - nominal workdays in one week
	DefaultDaysPerWeek = 5

	// SecondsPerHour converts configured hours into logged seconds.
	SecondsPerHour = 3600
)

// RulesConfig is the raw form of the calendar rules as read from configuration.
type RulesConfig struct {
	// ExcludeDates and IncludeDates hold epoch milliseconds or YYYY-MM-DD values.
	ExcludeDates       []string
	IncludeDates       []string
	NonWorkingPatterns []string
	FirstDayOfWeek     time.Weekday
	// Zone resolves epoch millisecond values to a calendar date. Nil means UTC.
	Zone *time.Location
}

// Rules decides which calendar days are workdays and which worklog labels
// count as non-working time. It is read-only after construction.
type Rules struct {
	excludes           map[dualtime.Date]struct{}
	includes           map[dualtime.Date]struct{}
	nonWorkingPatterns []*regexp.Regexp
	firstDayOfWeek     time.Weekday
}

// NewRules parses the override dates and compiles the non-working patterns.
func NewRules(cfg RulesConfig) (*Rules, error) {
	zone := cfg.Zone
	if zone == nil {
		zone = time.UTC
	}

	excludes, err := parseDateSet(cfg.ExcludeDates, zone)
	if err != nil {
		return nil, err
	}
	includes, err := parseDateSet(cfg.IncludeDates, zone)
	if err != nil {
		return nil, err
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.NonWorkingPatterns))
	for _, p := range cfg.NonWorkingPatterns {
		re, err := CompileFullMatch(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}

	first := cfg.FirstDayOfWeek
	if first != time.Sunday {
		first = time.Monday
	}

	return &Rules{
		excludes:           excludes,
		includes:           includes,
		nonWorkingPatterns: patterns,
		firstDayOfWeek:     first,
	}, nil
}

// CompileFullMatch compiles p so that it only matches a whole label.
func CompileFullMatch(p string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + p + ")$")
	if err != nil {
		return nil, &PatternError{Pattern: p, Err: err}
	}
	return re, nil
}

func parseDateSet(values []string, zone *time.Location) (map[dualtime.Date]struct{}, error) {
	set := make(map[dualtime.Date]struct{}, len(values))
	for _, v := range values {
		d, err := ParseOverrideDate(v, zone)
		if err != nil {
			return nil, err
		}
		set[d] = struct{}{}
	}
	return set, nil
}

// ParseOverrideDate accepts epoch milliseconds or YYYY-MM-DD.
func ParseOverrideDate(value string, zone *time.Location) (dualtime.Date, error) {
	v := strings.TrimSpace(value)
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return dualtime.DateOf(time.UnixMilli(ms).In(zone)), nil
	}
	d, err := dualtime.ParseDate(v)
	if err != nil {
		return dualtime.Date{}, &DateError{Value: value, Err: ErrInvalidDateFormat}
	}
	return d, nil
}

// IsWorkday reports whether time is expected to be logged on d.
// An exclude always wins; weekends need an explicit include.
func (r *Rules) IsWorkday(d dualtime.Date) bool {
	if r.IsExcluded(d) {
		return false
	}
	if d.IsWeekend() && !r.IsIncluded(d) {
		return false
	}
	return true
}

// IsExcluded reports whether d is in the exclude set.
func (r *Rules) IsExcluded(d dualtime.Date) bool {
	_, ok := r.excludes[d]
	return ok
}

// IsIncluded reports whether d is in the include set.
func (r *Rules) IsIncluded(d dualtime.Date) bool {
	_, ok := r.includes[d]
	return ok
}

// CountOverrideDelta returns the net adjustment for dates: minus one per
// excluded date, plus one per included date. Weekends are not special here,
// so an excluded Saturday still subtracts.
func (r *Rules) CountOverrideDelta(dates []dualtime.Date) int {
	delta := 0
	for _, d := range dates {
		if r.IsExcluded(d) {
			delta--
		}
		if r.IsIncluded(d) {
			delta++
		}
	}
	return delta
}

// ExcludeDaysOfMonth returns the excluded dates in the month of d, ascending.
func (r *Rules) ExcludeDaysOfMonth(d dualtime.Date) []dualtime.Date {
	return datesInMonth(r.excludes, d)
}

// IncludeDaysOfMonth returns the included dates in the month of d, ascending.
func (r *Rules) IncludeDaysOfMonth(d dualtime.Date) []dualtime.Date {
	return datesInMonth(r.includes, d)
}

func datesInMonth(set map[dualtime.Date]struct{}, d dualtime.Date) []dualtime.Date {
	var out []dualtime.Date
	for k := range set {
		if k.SameMonth(d) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// NonWorkingPatterns returns the compiled patterns. Nil when none are configured.
func (r *Rules) NonWorkingPatterns() []*regexp.Regexp {
	if len(r.nonWorkingPatterns) == 0 {
		return nil
	}
	return r.nonWorkingPatterns
}

// IsNonWorking reports whether label fully matches any non-working pattern.
func (r *Rules) IsNonWorking(label string) bool {
	return MatchesAny(r.nonWorkingPatterns, label)
}

// MatchesAny reports whether any pattern matches label.
func MatchesAny(patterns []*regexp.Regexp, label string) bool {
	for _, re := range patterns {
		if re.MatchString(label) {
			return true
		}
	}
	return false
}

// FirstDayOfWeek returns Monday or Sunday.
func (r *Rules) FirstDayOfWeek() time.Weekday {
	return r.firstDayOfWeek
}

// WeekStart walks back from d to the first day of its week.
func (r *Rules) WeekStart(d dualtime.Date) dualtime.Date {
	back := (int(d.Weekday()) - int(r.firstDayOfWeek) + 7) % 7
	return d.AddDays(-back)
}

// WeekDates returns the seven dates of the week containing d.
func (r *Rules) WeekDates(d dualtime.Date) []dualtime.Date {
	start := r.WeekStart(d)
	dates := make([]dualtime.Date, 7)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}

// DaySeconds converts hours per day into expected seconds, truncating fractions of a second.
func DaySeconds(hoursPerDay decimal.Decimal) int64 {
	return hoursPerDay.Mul(decimal.NewFromInt(SecondsPerHour)).IntPart()
}
