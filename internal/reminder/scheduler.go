// Package reminder runs the missing-day check and the summary on a schedule.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/logging"
	"github.com/worktally/internal/tracker"
)

// Checker finds the first day without a worklog before today.
type Checker interface {
	FirstMissingDayFrom(ctx context.Context, today dualtime.Date) (dualtime.Date, error)
	Today() dualtime.Date
}

// Summarizer computes the period summary around a moment.
type Summarizer interface {
	Summary(ctx context.Context, ref dualtime.Instant) (*tracker.Summary, error)
	Now() dualtime.Instant
}

// Report is the outcome of one reminder run.
type Report struct {
	Today        dualtime.Date    `json:"today"`
	FirstMissing dualtime.Date    `json:"first_missing"`
	HasGap       bool             `json:"has_gap"`
	Summary      *tracker.Summary `json:"summary"`
}

// Config holds the Scheduler collaborators. Notify is optional.
type Config struct {
	Schedule   string
	Location   *time.Location
	Checker    Checker
	Summarizer Summarizer
	Notify     func(Report)
	Logger     *slog.Logger
}

// Scheduler runs the reminder job on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	checker    Checker
	summarizer Summarizer
	notify     func(Report)
	logger     *slog.Logger
}

// New registers the job. It fails when the schedule cannot be parsed.
func New(cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		checker:    cfg.Checker,
		summarizer: cfg.Summarizer,
		notify:     cfg.Notify,
		logger:     cfg.Logger,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	logging.Component(context.Background(), s.logger, "reminder", "start").Info("reminder scheduler started")
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.Component(context.Background(), s.logger, "reminder", "stop").Info("reminder scheduler stopped")
}

// Next returns when the job runs next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if _, err := s.RunOnce(ctx); err != nil {
		logging.Component(ctx, s.logger, "reminder", "run").
			Error("reminder run failed", "error", err, "error_kind", logging.ErrorKind(err))
	}
}

// RunOnce performs the backward search and the summary once.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	logger := logging.Component(ctx, s.logger, "reminder", "run_once")

	today := s.checker.Today()
	first, err := s.checker.FirstMissingDayFrom(ctx, today)
	if err != nil {
		return Report{}, err
	}
	summary, err := s.summarizer.Summary(ctx, s.summarizer.Now())
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Today:        today,
		FirstMissing: first,
		HasGap:       first != today,
		Summary:      summary,
	}

	if report.HasGap {
		logger.WarnContext(ctx, "day without worklog", "date", first.String())
	} else {
		logger.InfoContext(ctx, "no missing days")
	}
	logger.InfoContext(ctx, "today so far",
		"logged", summary.Day.Summary,
		"remaining", summary.Day.Remaining,
		"week_percent", summary.Week.IndicatorPercent,
		"month_percent", summary.Month.IndicatorPercent,
	)

	if s.notify != nil {
		s.notify(report)
	}
	return report, nil
}
