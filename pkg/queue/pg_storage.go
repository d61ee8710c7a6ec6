package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage persists tasks in the tasks table. Claiming uses
// FOR UPDATE SKIP LOCKED so multiple workers never grab the same row.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a task store backed by the given pool.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, queue, task_name, payload, status, retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID, task.Queue, task.TaskName, task.Payload, task.Status,
		task.RetryCount, task.MaxRetries, task.ScheduledAt, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks SET
			status = 'processing',
			locked_until = now() + $1,
			locked_by = $2
		WHERE id = (
			SELECT id FROM tasks
			WHERE queue = ANY($3)
			  AND scheduled_at <= now()
			  AND (status = 'pending' OR (status = 'processing' AND locked_until < now()))
			ORDER BY scheduled_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, queue, task_name, payload, status, retry_count, max_retries,
			scheduled_at, locked_until, locked_by, processed_at, error, created_at`,
		lockDuration, workerID, queues,
	)

	var task Task
	err := row.Scan(
		&task.ID, &task.Queue, &task.TaskName, &task.Payload, &task.Status,
		&task.RetryCount, &task.MaxRetries, &task.ScheduledAt,
		&task.LockedUntil, &task.LockedBy, &task.ProcessedAt, &task.Error, &task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTaskToClaim
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return &task, nil
}

func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET
			status = 'completed',
			processed_at = now(),
			locked_until = NULL,
			locked_by = NULL
		WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTaskToClaim
	}
	return nil
}

func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET
			retry_count = retry_count + 1,
			error = $2,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE WHEN retry_count + 1 < max_retries THEN 'pending' ELSE 'failed' END,
			processed_at = CASE WHEN retry_count + 1 < max_retries THEN NULL ELSE now() END
		WHERE id = $1`, taskID, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to record task failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoTaskToClaim
	}
	return nil
}
