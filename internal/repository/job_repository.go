package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"payroll-import/internal/domain"
)

const importJobColumns = `id::text, period_id::text, dataset_group, mode, status, total_records, processed_records,
	success_count, failure_count, idempotency_token, metadata, outcome, error_message,
	created_at, updated_at, completed_at`

// PostgresJobRepository implements ImportJobRepository using PostgreSQL.
type PostgresJobRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresJobRepository creates a new PostgresJobRepository.
func NewPostgresJobRepository(pool *pgxpool.Pool) *PostgresJobRepository {
	return &PostgresJobRepository{pool: pool}
}

// CreateImportJob creates a new import job. When another job already holds the
// idempotency token, job is overwritten with that job instead.
func (r *PostgresJobRepository) CreateImportJob(ctx context.Context, job *domain.ImportJob) error {
	metadata, outcome, err := encodeJob(job)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO import_jobs (id, period_id, dataset_group, mode, status, total_records, processed_records,
			success_count, failure_count, idempotency_token, metadata, outcome, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, job.ID, job.PeriodID, job.Group, job.Mode, job.Status, job.TotalRecords, job.ProcessedRecords,
		job.SuccessCount, job.FailureCount, job.IdempotencyToken, metadata, outcome, job.CreatedAt, job.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			strings.Contains(pgErr.ConstraintName, "idempotency_token") {
			existingJob, fetchErr := r.GetImportJobByIdempotencyToken(ctx, job.IdempotencyToken)
			if fetchErr != nil {
				return fmt.Errorf("fetch existing job after race: %w", fetchErr)
			}
			if existingJob != nil {
				*job = *existingJob
				return nil
			}
		}
		return fmt.Errorf("insert import job: %w", err)
	}

	return nil
}

// GetImportJob retrieves an import job by ID.
func (r *PostgresJobRepository) GetImportJob(ctx context.Context, id string) (*domain.ImportJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+importJobColumns+` FROM import_jobs WHERE id::text = $1`, id)
	job, err := scanImportJob(row)
	if err != nil {
		return nil, fmt.Errorf("get import job: %w", err)
	}
	return job, nil
}

// GetImportJobByIdempotencyToken retrieves an import job by idempotency token.
func (r *PostgresJobRepository) GetImportJobByIdempotencyToken(ctx context.Context, token string) (*domain.ImportJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+importJobColumns+` FROM import_jobs WHERE idempotency_token = $1`, token)
	job, err := scanImportJob(row)
	if err != nil {
		return nil, fmt.Errorf("get import job by token: %w", err)
	}
	return job, nil
}

// UpdateImportJob updates an existing import job.
func (r *PostgresJobRepository) UpdateImportJob(ctx context.Context, job *domain.ImportJob) error {
	metadata, outcome, err := encodeJob(job)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, total_records = $3, processed_records = $4,
			success_count = $5, failure_count = $6, metadata = $7, outcome = $8,
			error_message = $9, updated_at = $10, completed_at = $11
		WHERE id = $1
	`, job.ID, job.Status, job.TotalRecords, job.ProcessedRecords,
		job.SuccessCount, job.FailureCount, metadata, outcome,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt)

	if err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func encodeJob(job *domain.ImportJob) (metadata, outcome []byte, err error) {
	metadata, err = json.Marshal(job.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if job.Outcome != nil {
		outcome, err = json.Marshal(job.Outcome)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal outcome: %w", err)
		}
	}
	return metadata, outcome, nil
}

// scanImportJob reads one job row; no row yields nil, nil.
func scanImportJob(row pgx.Row) (*domain.ImportJob, error) {
	var job domain.ImportJob
	var metadata, outcome []byte

	err := row.Scan(&job.ID, &job.PeriodID, &job.Group, &job.Mode, &job.Status, &job.TotalRecords, &job.ProcessedRecords,
		&job.SuccessCount, &job.FailureCount, &job.IdempotencyToken, &metadata, &outcome, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if metadata != nil {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if outcome != nil {
		job.Outcome = &domain.ImportOutcome{}
		if err := json.Unmarshal(outcome, job.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
	}
	return &job, nil
}

// MemoryJobRepository keeps import jobs in process memory. Stored jobs are
// copied on the way in and out.
type MemoryJobRepository struct {
	mu      sync.RWMutex
	jobs    map[string]domain.ImportJob
	byToken map[string]string
}

// NewMemoryJobRepository creates an empty MemoryJobRepository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{
		jobs:    map[string]domain.ImportJob{},
		byToken: map[string]string{},
	}
}

// CreateImportJob stores job. A job already holding the token is returned in
// its place.
func (r *MemoryJobRepository) CreateImportJob(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.IdempotencyToken != "" {
		if id, ok := r.byToken[job.IdempotencyToken]; ok {
			*job = cloneJob(r.jobs[id])
			return nil
		}
	}
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("insert import job: duplicate id %s", job.ID)
	}
	r.jobs[job.ID] = cloneJob(*job)
	if job.IdempotencyToken != "" {
		r.byToken[job.IdempotencyToken] = job.ID
	}
	return nil
}

// GetImportJob returns the job with id, nil when there is none.
func (r *MemoryJobRepository) GetImportJob(ctx context.Context, id string) (*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	out := cloneJob(job)
	return &out, nil
}

// GetImportJobByIdempotencyToken returns the job holding token, nil when there is none.
func (r *MemoryJobRepository) GetImportJobByIdempotencyToken(ctx context.Context, token string) (*domain.ImportJob, error) {
	r.mu.RLock()
	id, ok := r.byToken[token]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetImportJob(ctx, id)
}

// UpdateImportJob replaces the stored job.
func (r *MemoryJobRepository) UpdateImportJob(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	r.jobs[job.ID] = cloneJob(*job)
	return nil
}

func cloneJob(job domain.ImportJob) domain.ImportJob {
	if job.Outcome != nil {
		o := *job.Outcome
		o.Errors = append([]domain.RecordError(nil), o.Errors...)
		o.Warnings = append([]domain.RecordError(nil), o.Warnings...)
		o.CreatedIDs = append([]string(nil), o.CreatedIDs...)
		o.UpdatedIDs = append([]string(nil), o.UpdatedIDs...)
		if o.RollbackToken != nil {
			t := *o.RollbackToken
			o.RollbackToken = &t
		}
		job.Outcome = &o
	}
	if job.Metadata != nil {
		m := make(map[string]interface{}, len(job.Metadata))
		for k, v := range job.Metadata {
			m[k] = v
		}
		job.Metadata = m
	}
	return job
}
