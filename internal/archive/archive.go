// Package archive writes monthly markdown reports of logged work.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/missing"
	"github.com/worktally/internal/tracker"
	"github.com/worktally/internal/worklog"
)

// ErrNoWorklogs is returned when a month has nothing to archive.
var ErrNoWorklogs = errors.New("no worklogs in month")

// Archiver handles monthly report archival to markdown
type Archiver struct {
	tracker     *tracker.Tracker
	scanner     *missing.Scanner
	lister      worklog.Lister
	historyPath string
	zone        *time.Location
	now         func() time.Time
}

// Config holds the Archiver collaborators. Zone is the user's clock.
type Config struct {
	Tracker     *tracker.Tracker
	Scanner     *missing.Scanner
	Lister      worklog.Lister
	HistoryPath string
	Zone        *time.Location
	Now         func() time.Time
}

// New creates a new Archiver
func New(cfg Config) *Archiver {
	a := &Archiver{
		tracker:     cfg.Tracker,
		scanner:     cfg.Scanner,
		lister:      cfg.Lister,
		historyPath: cfg.HistoryPath,
		zone:        cfg.Zone,
		now:         cfg.Now,
	}
	if a.zone == nil {
		a.zone = time.Local
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// MonthReport contains archived month data
type MonthReport struct {
	Month         dualtime.Date
	Summary       tracker.Unit
	DaysWorked    int
	Labels        map[string]int64
	WeekBreakdown map[int]int64
	Missing       []missing.Day
	Worklogs      []worklog.Entry
}

func fileName(month dualtime.Date) string {
	return fmt.Sprintf("%d-%02d.md", month.Year, month.Month)
}

// ArchiveMonth writes the report of month's month and returns the file path.
func (a *Archiver) ArchiveMonth(ctx context.Context, month dualtime.Date) (string, error) {
	report, err := a.BuildReport(ctx, month)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.historyPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	filePath := filepath.Join(a.historyPath, fileName(report.Month))
	if err := os.WriteFile(filePath, []byte(a.generateMarkdown(report)), 0644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return filePath, nil
}

// BuildReport collects the worklogs, the month summary and the days missing
// logged time. Missing days are only scanned up to yesterday.
func (a *Archiver) BuildReport(ctx context.Context, month dualtime.Date) (*MonthReport, error) {
	first := month.FirstOfMonth()
	last := first.AddDays(dualtime.DaysIn(first.Year, first.Month) - 1)

	start := first.In(a.zone)
	entries, err := a.lister.Entries(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoWorklogs, start.Format("January 2006"))
	}

	summary, err := a.tracker.SummaryForDate(ctx, first)
	if err != nil {
		return nil, err
	}

	report := &MonthReport{
		Month:         first,
		Summary:       summary.Month,
		Labels:        make(map[string]int64),
		WeekBreakdown: make(map[int]int64),
		Worklogs:      entries,
	}

	yesterday := dualtime.DateOf(a.now().In(a.zone)).AddDays(-1)
	if yesterday.Before(last) {
		last = yesterday
	}
	if !last.Before(first) {
		report.Missing, err = a.scanner.ScanRange(ctx, first, last, true, true)
		if err != nil {
			return nil, err
		}
	}

	daysWorked := make(map[dualtime.Date]bool)
	for _, e := range entries {
		local := e.Start.In(a.zone)
		daysWorked[dualtime.DateOf(local)] = true
		report.Labels[e.Label] += e.Seconds
		_, week := local.ISOWeek()
		report.WeekBreakdown[week] += e.Seconds
	}
	report.DaysWorked = len(daysWorked)
	return report, nil
}

func (a *Archiver) generateMarkdown(r *MonthReport) string {
	format := a.tracker.Formatter()
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s %d\n\n", r.Month.Month, r.Month.Year))

	// Summary stats
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Logged | %s |\n", r.Summary.Summary))
	sb.WriteString(fmt.Sprintf("| Expected | %s |\n", r.Summary.ExpectedFormatted))
	if r.Summary.PercentUndefined {
		sb.WriteString("| Logged %% | - |\n")
	} else {
		sb.WriteString(fmt.Sprintf("| Logged %% | %.1f |\n", r.Summary.IndicatorPercent))
	}
	sb.WriteString(fmt.Sprintf("| Non-working | %s |\n", r.Summary.NonWorkFormatted))
	sb.WriteString(fmt.Sprintf("| Days Worked | %d |\n", r.DaysWorked))
	sb.WriteString(fmt.Sprintf("| Missing Days | %d |\n", len(r.Missing)))
	sb.WriteString("\n")

	// Week breakdown
	sb.WriteString("## Weekly Breakdown\n\n")
	sb.WriteString("| Week | Logged |\n")
	sb.WriteString("|------|--------|\n")

	weeks := make([]int, 0, len(r.WeekBreakdown))
	for w := range r.WeekBreakdown {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	for _, w := range weeks {
		sb.WriteString(fmt.Sprintf("| W%d | %s |\n", w, format.ExactDuration(r.WeekBreakdown[w])))
	}
	sb.WriteString("\n")

	// Labels
	sb.WriteString("## Labels\n\n")
	sb.WriteString("| Label | Logged |\n")
	sb.WriteString("|-------|--------|\n")
	labels := make([]string, 0, len(r.Labels))
	for l := range r.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", l, format.ExactDuration(r.Labels[l])))
	}
	sb.WriteString("\n")

	if len(r.Missing) > 0 {
		sb.WriteString("## Missing Days\n\n")
		sb.WriteString("| Date | Missing Hours |\n")
		sb.WriteString("|------|---------------|\n")
		for _, d := range r.Missing {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", d.Date, d.Missing))
		}
		sb.WriteString("\n")
	}

	// Worklog details
	sb.WriteString("## Worklogs\n\n")
	sb.WriteString("| Date | Start | End | Label | Logged | Comment |\n")
	sb.WriteString("|------|-------|-----|-------|--------|---------|\n")
	for _, e := range r.Worklogs {
		start := e.Start.In(a.zone)
		comment := truncate(e.Comment, 30)
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			start.Format("2006-01-02"), start.Format("15:04"), e.End().In(a.zone).Format("15:04"),
			e.Label, format.ExactDuration(e.Seconds), comment))
	}
	sb.WriteString("\n")

	// Footer
	sb.WriteString(fmt.Sprintf("---\n*Archived: %s*\n", a.now().In(a.zone).Format("2006-01-02 15:04")))

	return sb.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// ArchivePastMonths archives the months before the current one, going back
// months months. Months already archived or without worklogs are skipped.
func (a *Archiver) ArchivePastMonths(ctx context.Context, months int) ([]string, error) {
	current := dualtime.DateOf(a.now().In(a.zone)).FirstOfMonth()

	var archived []string
	for i := months; i >= 1; i-- {
		month := dualtime.DateOf(current.In(time.UTC).AddDate(0, -i, 0))
		name := fileName(month)

		// Skip if already archived
		if _, err := os.Stat(filepath.Join(a.historyPath, name)); err == nil {
			continue
		}

		if _, err := a.ArchiveMonth(ctx, month); err != nil {
			if errors.Is(err, ErrNoWorklogs) {
				continue
			}
			return archived, err
		}
		archived = append(archived, name)
	}
	return archived, nil
}

// ListArchives returns list of archived months
func (a *Archiver) ListArchives() ([]string, error) {
	entries, err := os.ReadDir(a.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var archives []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			archives = append(archives, e.Name())
		}
	}

	sort.Strings(archives)
	return archives, nil
}

// ReadArchive reads a specific month's archive
func (a *Archiver) ReadArchive(month dualtime.Date) (string, error) {
	name := fileName(month)
	data, err := os.ReadFile(filepath.Join(a.historyPath, name))
	if err != nil {
		return "", fmt.Errorf("archive not found: %s", name)
	}
	return string(data), nil
}
