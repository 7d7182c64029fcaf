package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

func (r *jobRepo) CreateIfAbsent(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO jobs (id, status, result, updated_at)
VALUES ($1, $2, '', now())
ON CONFLICT (id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, nil, q, id, string(model.JobStatusPending))
	if err != nil {
		return false, fmt.Errorf("create job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	return r.get(ctx, nil, id, false)
}

func (r *jobRepo) get(ctx context.Context, tx repository.Tx, id string, forUpdate bool) (*model.Job, error) {
	q := `SELECT id, status, result, updated_at FROM jobs WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var j model.Job
	var status string
	if err := row.Scan(&j.ID, &status, &j.Result, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	j.Status = model.JobStatus(status)
	return &j, nil
}

func (r *jobRepo) Update(ctx context.Context, id string, status model.JobStatus, result string) error {
	const q = `
INSERT INTO jobs (id, status, result, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  result = EXCLUDED.result,
  updated_at = EXCLUDED.updated_at;`

	if _, err := execSQL(ctx, r.pool, nil, q, id, string(status), result); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *jobRepo) Rearm(ctx context.Context, id string) (bool, error) {
	rearmed := false
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		j, err := r.get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if !j.CanRetry() {
			return nil
		}
		const q = `UPDATE jobs SET status = $2, result = '', updated_at = now() WHERE id = $1;`
		if _, err := execSQL(ctx, r.pool, tx, q, id, string(model.JobStatusPending)); err != nil {
			return err
		}
		rearmed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return rearmed, nil
}
