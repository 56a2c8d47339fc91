package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"modmanager/internal/domain"
)

// SyncRunRepo keeps the history of sync and refresh passes.
type SyncRunRepo struct{ *Repo }

func NewSyncRunRepo(db *sql.DB) *SyncRunRepo { return &SyncRunRepo{NewRepo(db)} }

func (r *SyncRunRepo) Create(ctx context.Context, run *domain.SyncRun) error {
	q := r.SQ.Insert("sync_runs").
		Columns("id", "kind", "status", "scanned", "synced", "translated", "started_at").
		Values(run.ID, run.Kind, run.Status, run.Scanned, run.Synced, run.Translated, toMillis(run.StartedAt))
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// Finish stores the final counters, status and error list of run.
func (r *SyncRunRepo) Finish(ctx context.Context, run *domain.SyncRun) error {
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Update("sync_runs").
			Set("status", run.Status).
			Set("scanned", run.Scanned).
			Set("synced", run.Synced).
			Set("translated", run.Translated).
			Set("finished_at", toMillis(run.FinishedAt)).
			Where(sq.Eq{"id": run.ID})
		sqlStr, args, _ := q.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("finish sync run: %w", err)
		}
		const chunk = 400
		for start := 0; start < len(run.Errors); start += chunk {
			ins := r.SQ.Insert("sync_run_errors").Columns("run_id", "message")
			for _, msg := range run.Errors[start:min(start+chunk, len(run.Errors))] {
				ins = ins.Values(run.ID, msg)
			}
			sqlStr, args, _ = ins.ToSql()
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("record sync run errors: %w", err)
			}
		}
		return nil
	})
}

var runColumns = []string{"id", "kind", "status", "scanned", "synced", "translated", "started_at", "finished_at"}

func scanRun(s rowScanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var started int64
	var finished sql.NullInt64
	if err := s.Scan(&run.ID, &run.Kind, &run.Status, &run.Scanned, &run.Synced, &run.Translated, &started, &finished); err != nil {
		return nil, err
	}
	run.StartedAt = fromMillis(started)
	if finished.Valid {
		run.FinishedAt = fromMillis(finished.Int64)
	}
	return &run, nil
}

func (r *SyncRunRepo) Get(ctx context.Context, id string) (*domain.SyncRun, error) {
	q := r.SQ.Select(runColumns...).From("sync_runs").Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	run, err := scanRun(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sync run: %w", err)
	}
	if run.Errors, err = r.listErrors(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first, errors included.
func (r *SyncRunRepo) List(ctx context.Context, limit int) ([]*domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.SQ.Select(runColumns...).From("sync_runs").OrderBy("started_at DESC", "id DESC").Limit(uint64(limit))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	var out []*domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, run := range out {
		if run.Errors, err = r.listErrors(ctx, run.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SyncRunRepo) listErrors(ctx context.Context, runID string) ([]string, error) {
	q := r.SQ.Select("message").From("sync_run_errors").Where(sq.Eq{"run_id": runID}).OrderBy("id")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync run errors: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
