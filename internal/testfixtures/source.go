// Package testfixtures holds in-memory collaborators for tests.
package testfixtures

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// Source is an in-memory worklog.Source.
type Source struct {
	mu      sync.Mutex
	entries []worklog.Entry
	err     error
	calls   int
}

// NewSource returns a Source holding entries.
func NewSource(entries ...worklog.Entry) *Source {
	return &Source{entries: append([]worklog.Entry(nil), entries...)}
}

// Add appends an entry with label starting at start.
func (s *Source) Add(label string, start time.Time, seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, worklog.Entry{Label: label, Start: start, Seconds: seconds})
}

// FailWith makes every later call return err.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Calls returns how many queries were served.
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// TotalSeconds implements worklog.Source.
func (s *Source) TotalSeconds(_ context.Context, start, end dualtime.Instant, exclude []*regexp.Regexp) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, worklog.Wrap("total seconds", s.err)
	}

	var total int64
	for _, e := range s.entries {
		if e.Start.Before(start.Instant()) || !e.Start.Before(end.Instant()) {
			continue
		}
		if exclude != nil && work.MatchesAny(exclude, e.Label) {
			continue
		}
		total += e.Seconds
	}
	return total, nil
}

// HasAnyWorklog implements worklog.Source.
func (s *Source) HasAnyWorklog(_ context.Context, day dualtime.Instant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, worklog.Wrap("has any worklog", s.err)
	}

	from := day.LocalDayStart()
	to := from.AddDate(0, 0, 1)
	for _, e := range s.entries {
		if !e.Start.Before(from) && e.Start.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

// Entries implements worklog.Lister.
func (s *Source) Entries(_ context.Context, start, end time.Time) ([]worklog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, worklog.Wrap("entries", s.err)
	}

	var out []worklog.Entry
	for _, e := range s.entries {
		if !e.Start.Before(start) && e.Start.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
