package store

import (
	"context"
	"fmt"
	"time"
)

// runTimeLayout is fixed-width so stored timestamps compare correctly as text.
const runTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Run is one recorded workflow run.
type Run struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Scanned        int       `json:"scanned"`
	NewContacts    int       `json:"new_contacts"`
	EditedContacts int       `json:"edited_contacts"`
	Batches        int       `json:"batches"`
	BatchesFailed  int       `json:"batches_failed"`
	TagsCreated    int       `json:"tags_created"`
	LinksCreated   int       `json:"links_created"`
}

// RecordRun appends a run to the history and returns its id.
func (db *DB) RecordRun(ctx context.Context, run *Run) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
	INSERT INTO import_runs (
		started_at, finished_at, scanned, new_contacts, edited_contacts,
		batches, batches_failed, tags_created, links_created
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(runTimeLayout),
		run.FinishedAt.UTC().Format(runTimeLayout),
		run.Scanned,
		run.NewContacts,
		run.EditedContacts,
		run.Batches,
		run.BatchesFailed,
		run.TagsCreated,
		run.LinksCreated,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns runs started at or after since, newest first.
// A zero since returns the whole history; limit 0 means no limit.
func (db *DB) ListRuns(ctx context.Context, since time.Time, limit int) ([]*Run, error) {
	query := `
	SELECT id, started_at, finished_at, scanned, new_contacts, edited_contacts,
	       batches, batches_failed, tags_created, links_created
	FROM import_runs
	`
	var args []interface{}
	if !since.IsZero() {
		query += " WHERE started_at >= ?"
		args = append(args, since.UTC().Format(runTimeLayout))
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &startedAt, &finishedAt, &r.Scanned, &r.NewContacts,
			&r.EditedContacts, &r.Batches, &r.BatchesFailed, &r.TagsCreated, &r.LinksCreated); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(runTimeLayout, startedAt); err == nil {
			r.StartedAt = t
		}
		if t, err := time.Parse(runTimeLayout, finishedAt); err == nil {
			r.FinishedAt = t
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the most recent run, or ErrNotFound when none was recorded.
func (db *DB) LastRun(ctx context.Context) (*Run, error) {
	runs, err := db.ListRuns(ctx, time.Time{}, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}
