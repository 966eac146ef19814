package logging

import (
	"errors"

	"github.com/worktally/internal/config"
	"github.com/worktally/internal/storage"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, worklog.ErrSourceQueryFailed):
		return "source_query_failed"
	case errors.Is(err, work.ErrInvalidDateFormat):
		return "invalid_date_format"
	case errors.Is(err, work.ErrInvalidPattern):
		return "invalid_pattern"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	}

	var vErr *config.ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
