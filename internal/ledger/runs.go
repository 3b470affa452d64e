package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelsmith/internal/services"
)

// ErrInvalidTransition is returned when a status change skips or reverses
// the run state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

const runColumns = `run_key, topic, status, detail, failure_reason, error_message,
    output_path, created_at, updated_at, finished_at`

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Begin inserts a new run in the given starting status. Runs that skip
// script generation start at StatusSynthesizing.
func (s *Store) Begin(ctx context.Context, runKey, topic string, status Status) (*Run, error) {
	runKey = strings.TrimSpace(runKey)
	if runKey == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "begin", "run key is required", nil)
	}
	if status != StatusGenerating && status != StatusSynthesizing {
		return nil, fmt.Errorf("%w: runs cannot start in %s", ErrInvalidTransition, status)
	}
	ts := now()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (run_key, topic, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runKey, strings.TrimSpace(topic), status, ts, ts,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, runKey)
}

// Transition moves a run forward to status and records detail.
func (s *Store) Transition(ctx context.Context, runKey string, status Status, detail string) error {
	if status == StatusDone || status == StatusFailed {
		return fmt.Errorf("%w: use Finish or Fail for %s", ErrInvalidTransition, status)
	}
	return s.move(ctx, runKey, status,
		`UPDATE runs SET status = ?, detail = ?, updated_at = ? WHERE run_key = ? AND status = ?`,
		func(from Status) []any { return []any{status, nullable(detail), now(), runKey, from} },
	)
}

// Finish marks a rendering run done and stores its output location.
func (s *Store) Finish(ctx context.Context, runKey, outputPath string) error {
	return s.move(ctx, runKey, StatusDone,
		`UPDATE runs SET status = ?, output_path = ?, detail = NULL, updated_at = ?, finished_at = ?
         WHERE run_key = ? AND status = ?`,
		func(from Status) []any {
			ts := now()
			return []any{StatusDone, outputPath, ts, ts, runKey, from}
		},
	)
}

// Fail moves a non-terminal run to StatusFailed with a reason label and the
// user-visible error message.
func (s *Store) Fail(ctx context.Context, runKey, reason, message string) error {
	return s.move(ctx, runKey, StatusFailed,
		`UPDATE runs SET status = ?, failure_reason = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE run_key = ? AND status = ?`,
		func(from Status) []any {
			ts := now()
			return []any{StatusFailed, nullable(reason), nullable(message), ts, ts, runKey, from}
		},
	)
}

// move reads the current status, validates the transition and applies the
// update guarded on that status so concurrent writers cannot skip states.
func (s *Store) move(ctx context.Context, runKey string, next Status, query string, args func(from Status) []any) error {
	current, err := s.Get(ctx, runKey)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(next) {
		return fmt.Errorf("%w: run %s %s -> %s", ErrInvalidTransition, runKey, current.Status, next)
	}
	res, err := s.execWithRetry(ctx, query, args(current.Status)...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runKey, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: run %s changed concurrently", ErrInvalidTransition, runKey)
	}
	return nil
}

// Get returns one run by key, or services.ErrNotFound.
func (s *Store) Get(ctx context.Context, runKey string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_key = ?`, runKey)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "ledger", "get", "run "+runKey, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runKey, err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FailInterrupted marks every non-terminal run failed. The server calls it
// at startup since a restart abandons whatever was in flight.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	ts := now()
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, failure_reason = 'interrupted', error_message = ?, updated_at = ?, finished_at = ?
         WHERE status NOT IN (?, ?)`,
		StatusFailed, InterruptedReason, ts, ts, StatusDone, StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		status     string
		detail     sql.NullString
		reason     sql.NullString
		message    sql.NullString
		output     sql.NullString
		createdAt  string
		updatedAt  string
		finishedAt sql.NullString
	)
	if err := scanner.Scan(&run.Key, &run.Topic, &status, &detail, &reason, &message,
		&output, &createdAt, &updatedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.Detail = detail.String
	run.FailureReason = reason.String
	run.ErrorMessage = message.String
	run.OutputPath = output.String
	run.CreatedAt = parseTime(createdAt)
	run.UpdatedAt = parseTime(updatedAt)
	run.FinishedAt = parseTime(finishedAt.String)
	return &run, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
