package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/storage"
)

//go:embed schema.sql
var schema string

var _ storage.TaskStore = (*Store)(nil)

// Store persists tasks in PostgreSQL. Each mutation is a single statement,
// so it is atomic without an explicit transaction.
type Store struct {
	pgPool *pgxpool.Pool
	now    func() time.Time
}

func New(pgPool *pgxpool.Pool) *Store {
	return &Store{
		pgPool: pgPool,
		now:    time.Now,
	}
}

// EnsureSchema creates the tasks table and its indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pgPool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

const taskColumns = `id,
       user_id,
       title,
       description,
       status,
       priority,
       due_date,
       archived,
       deleted_at,
       created_at,
       updated_at`

// bumpUpdatedAt keeps updated_at strictly increasing even if two mutations
// land within the same microsecond.
const bumpUpdatedAt = `GREATEST($1::timestamptz, updated_at + INTERVAL '1 microsecond')`

func (s *Store) Create(ctx context.Context, ownerID string, fields models.TaskFields) (*models.Task, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   status,
                   priority,
                   due_date,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING ` + taskColumns

	task, err := scanTask(s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		ownerID,
		fields.Title,
		fields.Description,
		string(fields.Status),
		string(fields.Priority),
		fields.DueDate,
		now,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func (s *Store) GetByID(ctx context.Context, ownerID string, id int64) (*models.Task, error) {
	const selectTaskByIDQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1 AND user_id = $2
`
	task, err := scanTask(s.pgPool.QueryRow(ctx, selectTaskByIDQuery, id, ownerID))
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func (s *Store) Update(ctx context.Context, ownerID string, id int64, fields models.TaskFields) (*models.Task, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return nil, err
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = $2,
    description = $3,
    status = $4,
    priority = $5,
    due_date = $6,
    updated_at = ` + bumpUpdatedAt + `
WHERE id = $7 AND user_id = $8
RETURNING ` + taskColumns

	task, err := scanTask(s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		s.timestamp(),
		fields.Title,
		fields.Description,
		string(fields.Status),
		string(fields.Priority),
		fields.DueDate,
		id,
		ownerID,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func (s *Store) SetStatus(ctx context.Context, ownerID string, id int64, status models.Status) (*models.Task, error) {
	if err := models.ValidateStatus(status); err != nil {
		return nil, err
	}

	const updateTaskStatusQuery = `
UPDATE tasks
SET status = $2,
    updated_at = ` + bumpUpdatedAt + `
WHERE id = $3 AND user_id = $4
RETURNING ` + taskColumns

	return s.queryTask(ctx, updateTaskStatusQuery, string(status), id, ownerID)
}

func (s *Store) SetArchived(ctx context.Context, ownerID string, id int64, archived bool) (*models.Task, error) {
	const updateTaskArchivedQuery = `
UPDATE tasks
SET archived = $2,
    updated_at = ` + bumpUpdatedAt + `
WHERE id = $3 AND user_id = $4
RETURNING ` + taskColumns

	return s.queryTask(ctx, updateTaskArchivedQuery, archived, id, ownerID)
}

func (s *Store) SoftDelete(ctx context.Context, ownerID string, id int64) (*models.Task, error) {
	const softDeleteTaskQuery = `
UPDATE tasks
SET deleted_at = $1,
    updated_at = ` + bumpUpdatedAt + `
WHERE id = $2 AND user_id = $3
RETURNING ` + taskColumns

	return s.queryTask(ctx, softDeleteTaskQuery, id, ownerID)
}

func (s *Store) Restore(ctx context.Context, ownerID string, id int64) (*models.Task, error) {
	const restoreTaskQuery = `
UPDATE tasks
SET deleted_at = NULL,
    updated_at = ` + bumpUpdatedAt + `
WHERE id = $2 AND user_id = $3
RETURNING ` + taskColumns

	return s.queryTask(ctx, restoreTaskQuery, id, ownerID)
}

func (s *Store) HardDelete(ctx context.Context, ownerID string, id int64) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(ctx, deleteTaskQuery, id, ownerID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (s *Store) SoftDeleteAll(ctx context.Context, ownerID string) (int64, error) {
	const softDeleteAllTasksQuery = `
UPDATE tasks
SET deleted_at = $1,
    updated_at = ` + bumpUpdatedAt + `
WHERE user_id = $2 AND deleted_at IS NULL
`
	tag, err := s.pgPool.Exec(ctx, softDeleteAllTasksQuery, s.timestamp(), ownerID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListAll(ctx context.Context, ownerID string) ([]*models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = $1
`
	rows, err := s.pgPool.Query(ctx, selectTasksByUserIDQuery, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pgPool.Ping(ctx)
}

// queryTask runs a single-row mutation whose first parameter is the
// mutation timestamp.
func (s *Store) queryTask(ctx context.Context, query string, args ...any) (*models.Task, error) {
	args = append([]any{s.timestamp()}, args...)
	task, err := scanTask(s.pgPool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task     models.Task
		status   string
		priority string
	)
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.DueDate,
		&task.Archived,
		&task.DeletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = models.Status(status)
	task.Priority = models.Priority(priority)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if task.DueDate != nil {
		d := task.DueDate.UTC()
		task.DueDate = &d
	}
	if task.DeletedAt != nil {
		d := task.DeletedAt.UTC()
		task.DeletedAt = &d
	}
	return &task, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrTaskNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation,
			pgerrcode.NotNullViolation,
			pgerrcode.StringDataRightTruncationDataException:
			return fmt.Errorf("%w: %s", models.ErrInvalidTask, pgErr.Message)
		}
	}
	return err
}
