// Package missing finds workdays that lack logged time.
package missing

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/durationfmt"
	"github.com/worktally/internal/logging"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// LookbackDays is the size of the backward search window.
const LookbackDays = 7

// Day is a workday that did not get enough logged time.
type Day struct {
	Date dualtime.Date `json:"date"`
	// Missing is the shortfall in hours with one decimal, e.g. "0.3".
	Missing string `json:"missing"`
}

// Config holds the Scanner collaborators.
type Config struct {
	Source      worklog.Source
	Rules       *work.Rules
	HoursPerDay decimal.Decimal
	OriginZone  *time.Location
	LocalZone   *time.Location
	Now         func() time.Time
	Logger      *slog.Logger
}

// Scanner walks calendar days and asks the worklog source about each one.
// It keeps no state between calls.
type Scanner struct {
	source      worklog.Source
	rules       *work.Rules
	hoursPerDay decimal.Decimal
	origin      *time.Location
	local       *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

// NewScanner returns a Scanner, defaulting zones to time.Local and the clock to time.Now.
func NewScanner(cfg Config) *Scanner {
	s := &Scanner{
		source:      cfg.Source,
		rules:       cfg.Rules,
		hoursPerDay: cfg.HoursPerDay,
		origin:      cfg.OriginZone,
		local:       cfg.LocalZone,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
	if s.origin == nil {
		s.origin = time.Local
	}
	if s.local == nil {
		s.local = s.origin
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Scanner) instant(d dualtime.Date) dualtime.Instant {
	return dualtime.FromLocal(d.In(s.local), s.origin, s.local)
}

// Today returns the current date on the user's clock.
func (s *Scanner) Today() dualtime.Date {
	return dualtime.FromLocal(s.now(), s.origin, s.local).LocalDate()
}

// FirstMissingDay checks the seven days before today, oldest first, and
// returns the first workday with nothing logged. When every workday has a
// worklog it returns today.
func (s *Scanner) FirstMissingDay(ctx context.Context) (dualtime.Date, error) {
	return s.FirstMissingDayFrom(ctx, s.Today())
}

// FirstMissingDayFrom is FirstMissingDay with today given by the caller.
func (s *Scanner) FirstMissingDayFrom(ctx context.Context, today dualtime.Date) (dualtime.Date, error) {
	logger := logging.Component(ctx, s.logger, "missing_scanner", "first_missing_day")

	for d := today.AddDays(-LookbackDays); d.Before(today); d = d.AddDays(1) {
		if !s.rules.IsWorkday(d) {
			continue
		}
		ok, err := s.source.HasAnyWorklog(ctx, s.instant(d))
		if err != nil {
			return dualtime.Date{}, err
		}
		if !ok {
			logger.DebugContext(ctx, "found day without worklog", "date", d.String())
			return d, nil
		}
	}
	return today, nil
}

// ScanRange checks every day in [from, to] and returns the deficient ones,
// most recent first.
//
// With quantity false a day is deficient when nothing is logged and the full
// working day is reported missing. With quantity true the logged seconds are
// compared to the working day; excludeNonWorking drops worklogs whose label
// matches a non-working pattern before comparing.
func (s *Scanner) ScanRange(ctx context.Context, from, to dualtime.Date, quantity, excludeNonWorking bool) ([]Day, error) {
	logger := logging.Component(ctx, s.logger, "missing_scanner", "scan_range", "from", from.String(), "to", to.String())
	expected := work.DaySeconds(s.hoursPerDay)
	fullDay := durationfmt.OneDecimal(s.hoursPerDay)

	exclude := s.rules.NonWorkingPatterns()
	if !excludeNonWorking {
		exclude = nil
	}

	var days []Day
	for d := from; !d.After(to); d = d.AddDays(1) {
		if !s.rules.IsWorkday(d) {
			continue
		}

		if !quantity {
			ok, err := s.source.HasAnyWorklog(ctx, s.instant(d))
			if err != nil {
				return nil, err
			}
			if !ok {
				days = append(days, Day{Date: d, Missing: fullDay})
			}
			continue
		}

		start := s.instant(d)
		end := s.instant(d.AddDays(1))
		logged, err := s.source.TotalSeconds(ctx, start, end, exclude)
		if err != nil {
			return nil, err
		}
		if short := expected - logged; short > 0 {
			logger.DebugContext(ctx, "day is short", "date", d.String(), "logged", logged, "expected", expected)
			days = append(days, Day{Date: d, Missing: durationfmt.MissingHours(short)})
		}
	}

	reverse(days)
	return days, nil
}

func reverse(days []Day) {
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
}
