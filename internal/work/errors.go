package work

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateFormat is returned when an override date cannot be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidPattern is returned when a non-working pattern does not compile.
	ErrInvalidPattern = errors.New("invalid non-working pattern")
)

// DateError carries the offending override value.
type DateError struct {
	Value string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Value)
}

func (e *DateError) Unwrap() error { return e.Err }

// PatternError carries the pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrInvalidPattern, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }
