package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/worktally/internal/dualtime"
	"github.com/worktally/internal/work"
	"github.com/worktally/internal/worklog"
)

// ErrNotFound is returned when a worklog id does not exist.
var ErrNotFound = errors.New("worklog not found")

// Database is a SQLite-backed worklog.Source.
type Database struct {
	db *sql.DB
}

var (
	_ worklog.Source = (*Database)(nil)
	_ worklog.Lister = (*Database)(nil)
)

// New opens the SQLite database at path and creates the worklog table.
func New(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return database, nil
}

func (d *Database) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS worklogs (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			start_ms INTEGER NOT NULL,
			seconds INTEGER NOT NULL,
			comment TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_worklogs_start ON worklogs(start_ms)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// InsertWorklog stores e, assigning an id when it has none.
func (d *Database) InsertWorklog(ctx context.Context, e *worklog.Entry) (string, error) {
	if err := validateEntry(e); err != nil {
		return "", err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO worklogs (id, label, start_ms, seconds, comment)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID,
		e.Label,
		e.Start.UnixMilli(),
		e.Seconds,
		e.Comment,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert worklog: %w", err)
	}
	return e.ID, nil
}

// UpdateWorklog overwrites the worklog with e's id.
func (d *Database) UpdateWorklog(ctx context.Context, e *worklog.Entry) error {
	if err := validateEntry(e); err != nil {
		return err
	}

	result, err := d.db.ExecContext(ctx,
		`UPDATE worklogs SET label = ?, start_ms = ?, seconds = ?, comment = ?
		 WHERE id = ?`,
		e.Label,
		e.Start.UnixMilli(),
		e.Seconds,
		e.Comment,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update worklog: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, e.ID)
	}
	return nil
}

func validateEntry(e *worklog.Entry) error {
	if e.Label == "" {
		return errors.New("worklog label is required")
	}
	if e.Seconds <= 0 {
		return fmt.Errorf("worklog duration must be positive, got %ds", e.Seconds)
	}
	return nil
}

func (d *Database) GetWorklog(ctx context.Context, id string) (*worklog.Entry, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, label, start_ms, seconds, comment FROM worklogs WHERE id = ?`,
		id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (d *Database) DeleteWorklog(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM worklogs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// GetWorklogsInRange returns the worklogs starting in [start, end), oldest first.
func (d *Database) GetWorklogsInRange(ctx context.Context, start, end time.Time) ([]worklog.Entry, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, label, start_ms, seconds, comment
		 FROM worklogs WHERE start_ms >= ? AND start_ms < ?
		 ORDER BY start_ms ASC`,
		start.UnixMilli(),
		end.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []worklog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*worklog.Entry, error) {
	var (
		e       worklog.Entry
		startMs int64
		comment sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Label, &startMs, &e.Seconds, &comment); err != nil {
		return nil, err
	}
	e.Start = time.UnixMilli(startMs)
	e.Comment = comment.String
	return &e, nil
}

// Entries implements worklog.Lister.
func (d *Database) Entries(ctx context.Context, start, end time.Time) ([]worklog.Entry, error) {
	entries, err := d.GetWorklogsInRange(ctx, start, end)
	return entries, worklog.Wrap("entries", err)
}

// TotalSeconds implements worklog.Source. Without patterns the sum runs in
// SQLite; with patterns the rows are matched against the labels here.
func (d *Database) TotalSeconds(ctx context.Context, start, end dualtime.Instant, exclude []*regexp.Regexp) (int64, error) {
	if exclude == nil {
		var total sql.NullInt64
		err := d.db.QueryRowContext(ctx,
			`SELECT SUM(seconds) FROM worklogs WHERE start_ms >= ? AND start_ms < ?`,
			start.Instant().UnixMilli(),
			end.Instant().UnixMilli(),
		).Scan(&total)
		if err != nil {
			return 0, worklog.Wrap("total seconds", err)
		}
		return total.Int64, nil
	}

	entries, err := d.GetWorklogsInRange(ctx, start.Instant(), end.Instant())
	if err != nil {
		return 0, worklog.Wrap("total seconds", err)
	}
	var total int64
	for _, e := range entries {
		if !work.MatchesAny(exclude, e.Label) {
			total += e.Seconds
		}
	}
	return total, nil
}

// HasAnyWorklog implements worklog.Source over the local day of day.
func (d *Database) HasAnyWorklog(ctx context.Context, day dualtime.Instant) (bool, error) {
	from := day.LocalDayStart()
	to := from.AddDate(0, 0, 1)

	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM worklogs WHERE start_ms >= ? AND start_ms < ?)`,
		from.UnixMilli(),
		to.UnixMilli(),
	).Scan(&exists)
	if err != nil {
		return false, worklog.Wrap("has any worklog", err)
	}
	return exists, nil
}
