// Package worklog defines the source of logged time consumed by the scanner
// and the period accountant.
package worklog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/worktally/internal/dualtime"
)

// ErrSourceQueryFailed marks any failure raised by a Source.
var ErrSourceQueryFailed = errors.New("worklog source query failed")

// Source supplies aggregate logged time.
type Source interface {
	// TotalSeconds sums the seconds logged in [start, end) on the origin clock.
	// A nil exclude disables filtering. A non-nil exclude drops entries whose
	// label matches any of the patterns, even if none end up matching.
	TotalSeconds(ctx context.Context, start, end dualtime.Instant, exclude []*regexp.Regexp) (int64, error)

	// HasAnyWorklog reports whether anything was logged on the local day of day.
	HasAnyWorklog(ctx context.Context, day dualtime.Instant) (bool, error)
}

// Entry is a single logged piece of work.
type Entry struct {
	ID      string
	Label   string
	Start   time.Time
	Seconds int64
	Comment string
}

// End returns the moment the entry finished.
func (e Entry) End() time.Time {
	return e.Start.Add(time.Duration(e.Seconds) * time.Second)
}

// Lister is implemented by sources that can return the entries themselves.
type Lister interface {
	Entries(ctx context.Context, start, end time.Time) ([]Entry, error)
}

// QueryError wraps a failure of a Source operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSourceQueryFailed, e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrSourceQueryFailed }

// Wrap returns err as a QueryError for op, or nil. Errors that already
// carry ErrSourceQueryFailed are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSourceQueryFailed) {
		return err
	}
	return &QueryError{Op: op, Err: err}
}
