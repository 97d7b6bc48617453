package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/questionnaire/internal/db"
)

type jobRow struct {
	ID          int64          `db:"id"`
	Type        string         `db:"type"`
	Payload     sql.NullString `db:"payload"`
	Status      string         `db:"status"`
	Attempts    int            `db:"attempts"`
	MaxAttempts int            `db:"max_attempts"`
	Priority    int            `db:"priority"`
	ScheduledAt int64          `db:"scheduled_at"`
	NextTryAt   sql.NullInt64  `db:"next_try_at"`
	LastError   sql.NullString `db:"last_error"`
	Created     int64          `db:"created"`
	Updated     int64          `db:"updated"`
}

func (r jobRow) job() *Job {
	j := &Job{
		ID:          r.ID,
		Type:        r.Type,
		Status:      r.Status,
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		Priority:    r.Priority,
		ScheduledAt: time.Unix(r.ScheduledAt, 0),
		Created:     time.Unix(r.Created, 0),
		Updated:     time.Unix(r.Updated, 0),
		LastError:   r.LastError.String,
	}
	if r.Payload.Valid {
		j.Payload = json.RawMessage(r.Payload.String)
	}
	if r.NextTryAt.Valid {
		t := time.Unix(r.NextTryAt.Int64, 0)
		j.NextTryAt = &t
	}
	return j
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated`

// DeadLetter is a job that exhausted its attempts or had no handler.
type DeadLetter struct {
	ID        int64  `db:"id" json:"id"`
	JobID     int64  `db:"job_id" json:"job_id"`
	Type      string `db:"type" json:"type"`
	Payload   string `db:"payload" json:"payload"`
	Attempts  int    `db:"attempts" json:"attempts"`
	LastError string `db:"last_error" json:"last_error"`
	FailedAt  int64  `db:"failed_at" json:"failed_at"`
}

// Repository persists jobs in the jobs and dead_letter_jobs tables.
type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

// Enqueue inserts a job into the jobs table and returns the new ID
func (r *Repository) Enqueue(ctx context.Context, j *Job) (int64, error) {
	if j.MaxAttempts == 0 {
		j.MaxAttempts = 5
	}
	if j.ScheduledAt.IsZero() {
		j.ScheduledAt = time.Now()
	}
	now := time.Now().UTC().Unix()
	q := `INSERT INTO jobs(type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated) VALUES(?,?,?,?,?,?,?,?,?)`
	res, err := r.db.Exec(ctx, q, j.Type, string(j.Payload), StatusQueued, j.Attempts, j.MaxAttempts, j.Priority, j.ScheduledAt.UTC().Unix(), now, now)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	return res.LastInsertId()
}

// FetchNext claims the next runnable job by priority and schedule and marks
// it running, or returns (nil, nil) when none is due.
func (r *Repository) FetchNext(ctx context.Context) (*Job, error) {
	var claimed *Job
	err := r.db.WithTx(ctx, func(tx *db.Tx) error {
		now := time.Now().UTC().Unix()
		var row jobRow
		q := `SELECT ` + jobColumns + ` FROM jobs
			WHERE status IN ('queued', 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) AND scheduled_at <= ?
			ORDER BY priority ASC, scheduled_at ASC, id ASC LIMIT 1`
		if err := tx.Get(ctx, &row, q, now, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE jobs SET status = ?, updated = ? WHERE id = ?`, StatusRunning, now, row.ID); err != nil {
			return err
		}
		row.Status = StatusRunning
		claimed = row.job()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch next job: %w", err)
	}
	return claimed, nil
}

// GetJob returns a job by id or nil when it no longer exists.
func (r *Repository) GetJob(ctx context.Context, id int64) (*Job, error) {
	var row jobRow
	if err := r.db.Get(ctx, &row, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.job(), nil
}

// UpdateJob updates attempts, status, next_try_at, last_error
func (r *Repository) UpdateJob(ctx context.Context, j *Job) error {
	var nextTry any
	if j.NextTryAt != nil {
		nextTry = j.NextTryAt.Unix()
	}
	q := `UPDATE jobs SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, q, j.Status, j.Attempts, nextTry, j.LastError, time.Now().UTC().Unix(), j.ID)
	return err
}

// MoveToDeadLetter moves a job to dead_letter_jobs and deletes the original
func (r *Repository) MoveToDeadLetter(ctx context.Context, j *Job) error {
	return r.db.WithTx(ctx, func(tx *db.Tx) error {
		insert := `INSERT INTO dead_letter_jobs(job_id, type, payload, attempts, last_error, failed_at) VALUES(?,?,?,?,?,?)`
		if _, err := tx.Exec(ctx, insert, j.ID, j.Type, string(j.Payload), j.Attempts, j.LastError, time.Now().UTC().Unix()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = ?`, j.ID)
		return err
	})
}

// ListDeadLetters returns dead-lettered jobs, newest first.
func (r *Repository) ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []DeadLetter{}
	q := `SELECT id, job_id, type, COALESCE(payload, '') AS payload, attempts, COALESCE(last_error, '') AS last_error, failed_at
		FROM dead_letter_jobs ORDER BY id DESC LIMIT ?`
	if err := r.db.Select(ctx, &out, q, limit); err != nil {
		return nil, err
	}
	return out, nil
}
