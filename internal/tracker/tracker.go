package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/durationfmt"
	"github.com/worktally/internal/logging"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// DefaultStartTime is where a day's first worklog starts when no start is given.
const DefaultStartTime = "08:00"

// ErrNoStore is returned by write operations when the tracker is read-only.
var ErrNoStore = errors.New("tracker has no worklog store")

// Store persists worklogs.
type Store interface {
	InsertWorklog(ctx context.Context, e *worklog.Entry) (string, error)
	GetWorklog(ctx context.Context, id string) (*worklog.Entry, error)
	UpdateWorklog(ctx context.Context, e *worklog.Entry) error
	DeleteWorklog(ctx context.Context, id string) error
}

// WorklogEdit lists the fields EditWorklog changes. Zero values keep what
// is stored; a nil Comment keeps the comment.
type WorklogEdit struct {
	Label   string
	Seconds int64
	Day     dualtime.Date
	Clock   string
	Comment *string
}

// Config holds the Tracker collaborators. Store is optional.
type Config struct {
	Source      worklog.Source
	Store       Store
	Rules       *work.Rules
	HoursPerDay decimal.Decimal
	DaysPerWeek decimal.Decimal
	OriginZone  *time.Location
	LocalZone   *time.Location
	Now         func() time.Time
	Logger      *slog.Logger
}

// Tracker compares logged time with expected time over days, weeks and months.
type Tracker struct {
	source      worklog.Source
	lister      worklog.Lister
	store       Store
	rules       *work.Rules
	hoursPerDay decimal.Decimal
	daysPerWeek decimal.Decimal
	origin      *time.Location
	local       *time.Location
	now         func() time.Time
	format      durationfmt.Formatter
	logger      *slog.Logger
}

// New returns a Tracker, defaulting zones to time.Local and the clock to time.Now.
func New(cfg Config) *Tracker {
	t := &Tracker{
		source:      cfg.Source,
		store:       cfg.Store,
		rules:       cfg.Rules,
		hoursPerDay: cfg.HoursPerDay,
		daysPerWeek: cfg.DaysPerWeek,
		origin:      cfg.OriginZone,
		local:       cfg.LocalZone,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
	if l, ok := cfg.Source.(worklog.Lister); ok {
		t.lister = l
	}
	if t.origin == nil {
		t.origin = time.Local
	}
	if t.local == nil {
		t.local = t.origin
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.format = durationfmt.New(t.hoursPerDay, t.daysPerWeek)
	return t
}

// Formatter returns the duration formatter matching the tracker's working day.
func (t *Tracker) Formatter() durationfmt.Formatter {
	return t.format
}

// Now returns the current moment on both clocks.
func (t *Tracker) Now() dualtime.Instant {
	return dualtime.FromLocal(t.now(), t.origin, t.local)
}

// At returns midnight of d on the user's clock.
func (t *Tracker) At(d dualtime.Date) dualtime.Instant {
	return dualtime.FromLocal(d.In(t.local), t.origin, t.local)
}

// LoggedDaysOfMonth returns the day numbers of d's month that have any worklog.
func (t *Tracker) LoggedDaysOfMonth(ctx context.Context, d dualtime.Date) ([]string, error) {
	first := d.FirstOfMonth()
	n := dualtime.DaysIn(d.Year, d.Month)

	days := []string{}
	for i := 0; i < n; i++ {
		day := first.AddDays(i)
		ok, err := t.source.HasAnyWorklog(ctx, t.At(day))
		if err != nil {
			return nil, err
		}
		if ok {
			days = append(days, strconv.Itoa(day.Day))
		}
	}
	return days, nil
}

// DayEntries returns the worklogs starting on d, user clock, oldest first.
func (t *Tracker) DayEntries(ctx context.Context, d dualtime.Date) ([]worklog.Entry, error) {
	if t.lister == nil {
		return nil, fmt.Errorf("worklog source cannot list entries")
	}
	start := d.In(t.local)
	return t.lister.Entries(ctx, start, start.AddDate(0, 0, 1))
}

// LastEndTime returns the latest end of d's worklogs as HH:MM on the user's
// clock, or DefaultStartTime when nothing was logged.
func (t *Tracker) LastEndTime(ctx context.Context, d dualtime.Date) (string, error) {
	entries, err := t.DayEntries(ctx, d)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return DefaultStartTime, nil
	}
	last := entries[0].End()
	for _, e := range entries[1:] {
		if e.End().After(last) {
			last = e.End()
		}
	}
	return last.In(t.local).Format("15:04"), nil
}

// LogWork stores a worklog of seconds for label on day. An empty clock
// starts it where the day's last worklog ended.
func (t *Tracker) LogWork(ctx context.Context, label string, seconds int64, day dualtime.Date, clock, comment string) (*worklog.Entry, error) {
	if t.store == nil {
		return nil, ErrNoStore
	}
	if clock == "" {
		last, err := t.LastEndTime(ctx, day)
		if err != nil {
			return nil, err
		}
		clock = last
	}
	start, err := parseTime(clock, day, t.local)
	if err != nil {
		return nil, err
	}

	entry := &worklog.Entry{Label: label, Start: start, Seconds: seconds, Comment: comment}
	if _, err := t.store.InsertWorklog(ctx, entry); err != nil {
		return nil, err
	}
	logging.Component(ctx, t.logger, "tracker", "log_work").
		InfoContext(ctx, "worklog stored", "id", entry.ID, "label", label, "seconds", seconds)
	return entry, nil
}

// EditWorklog changes the worklog id. A new day without a clock keeps the
// stored start time, a clock without a day keeps the stored day.
func (t *Tracker) EditWorklog(ctx context.Context, id string, edit WorklogEdit) (*worklog.Entry, error) {
	if t.store == nil {
		return nil, ErrNoStore
	}
	e, err := t.store.GetWorklog(ctx, id)
	if err != nil {
		return nil, err
	}

	if edit.Label != "" {
		e.Label = edit.Label
	}
	if edit.Seconds != 0 {
		e.Seconds = edit.Seconds
	}
	if edit.Comment != nil {
		e.Comment = *edit.Comment
	}
	if !edit.Day.IsZero() || edit.Clock != "" {
		local := e.Start.In(t.local)
		day := dualtime.DateOf(local)
		if !edit.Day.IsZero() {
			day = edit.Day
		}
		clock := edit.Clock
		if clock == "" {
			clock = local.Format("15:04:05")
		}
		if e.Start, err = parseTime(clock, day, t.local); err != nil {
			return nil, err
		}
	}

	if err := t.store.UpdateWorklog(ctx, e); err != nil {
		return nil, err
	}
	logging.Component(ctx, t.logger, "tracker", "edit_worklog").
		InfoContext(ctx, "worklog updated", "id", e.ID, "label", e.Label, "seconds", e.Seconds)
	return e, nil
}

// DeleteWorklog removes a worklog by id.
func (t *Tracker) DeleteWorklog(ctx context.Context, id string) error {
	if t.store == nil {
		return ErrNoStore
	}
	return t.store.DeleteWorklog(ctx, id)
}

func parseTime(s string, day dualtime.Date, loc *time.Location) (time.Time, error) {
	for _, format := range []string{"15:04", "3:04", "15:04:05", "3:04:05"} {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(day.Year, day.Month, day.Day, t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format: %s", s)
}
