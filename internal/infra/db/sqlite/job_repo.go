package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
  id         TEXT PRIMARY KEY,
  status     TEXT NOT NULL,
  result     TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL
);`

type jobRepo struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and ensures the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps INSERT OR IGNORE races inside sqlite's own locking
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return db, nil
}

func NewJobRepo(db *sql.DB) *jobRepo {
	return &jobRepo{db: db}
}

func (r *jobRepo) CreateIfAbsent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.ErrInvalidArgument
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO jobs (id, status, result, updated_at) VALUES (?, ?, '', ?)`,
		id, string(model.JobStatusPending), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("create job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status, result, updated_at FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &status, &j.Result, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	j.Status = model.JobStatus(status)
	return &j, nil
}

func (r *jobRepo) Update(ctx context.Context, id string, status model.JobStatus, result string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO jobs (id, status, result, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  result = excluded.result,
  updated_at = excluded.updated_at`,
		id, string(status), result, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *jobRepo) Rearm(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, result = '', updated_at = ? WHERE id = ? AND status = ?`,
		string(model.JobStatusPending), time.Now().UTC(), id, string(model.JobStatusFailed))
	if err != nil {
		return false, fmt.Errorf("rearm job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
