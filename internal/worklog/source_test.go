package worklog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueryError(t *testing.T) {
	err := Wrap("total seconds", context.DeadlineExceeded)

	if !errors.Is(err, ErrSourceQueryFailed) {
		t.Errorf("errors.Is(%v, ErrSourceQueryFailed) = false", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(%v, DeadlineExceeded) = false", err)
	}

	var qe *QueryError
	if !errors.As(err, &qe) || qe.Op != "total seconds" {
		t.Errorf("errors.As() = %#v, want QueryError for total seconds", err)
	}
}

func TestWrapIdempotent(t *testing.T) {
	if Wrap("x", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	first := Wrap("inner", errors.New("boom"))
	if second := Wrap("outer", first); second != first {
		t.Errorf("Wrap() rewrapped an existing query error: %v", second)
	}
}

func TestEntryEnd(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e := Entry{Start: start, Seconds: 5400}
	want := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	if !e.End().Equal(want) {
		t.Errorf("End() = %v, want %v", e.End(), want)
	}
}
