package services

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/query"
)

var (
	ErrTaskNotFound = models.ErrTaskNotFound
	ErrInvalidTask  = models.ErrInvalidTask
	ErrUnauthorized = errors.New("unauthorized")
)

type AuthService interface {
	// Authenticate verifies a bearer token and returns the identity
	// it was issued for.
	//
	// Every failure (bad signature, unexpected signing method, expired or
	// missing claims) is reported as ErrUnauthorized.
	Authenticate(token string) (*Identity, error)
}

type TaskService interface {
	// CreateTask stores a new active task owned by params.UserID.
	//
	// It returns ErrInvalidTask if the title is blank after trimming
	// or any field is out of range.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns the task whatever its archived or deleted state.
	GetTask(ctx context.Context, params TaskParams) (*models.Task, error)

	// UpdateTask replaces title, description, status, priority and due
	// date. It returns ErrTaskNotFound or ErrInvalidTask.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error)
	ArchiveTask(ctx context.Context, params TaskParams) (*models.Task, error)
	UnarchiveTask(ctx context.Context, params TaskParams) (*models.Task, error)

	// DeleteTask moves the task to the deleted view. RestoreTask
	// brings it back to the view its archived flag selects.
	DeleteTask(ctx context.Context, params TaskParams) (*models.Task, error)
	RestoreTask(ctx context.Context, params TaskParams) (*models.Task, error)

	// PurgeTask removes the task permanently.
	PurgeTask(ctx context.Context, params TaskParams) error

	// DeleteAllTasks soft-deletes every non-deleted task of the user.
	DeleteAllTasks(ctx context.Context, userID string) (int64, error)

	ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error)
	ListTasksPage(ctx context.Context, params ListTasksParams) (query.Page, error)
	SearchTasks(ctx context.Context, params FilterTasksParams) ([]*models.Task, error)
	FilterTasks(ctx context.Context, params FilterTasksParams) (query.Page, error)
	GetOverdueTasks(ctx context.Context, userID string) ([]*models.Task, error)
	CountTasksByStatus(ctx context.Context, userID string) (map[models.Status]int, error)
}

type Identity struct {
	UserID string
}

type TaskParams struct {
	ID     int64
	UserID string
}

type CreateTaskParams struct {
	UserID string
	Fields models.TaskFields
}

type UpdateTaskParams struct {
	ID     int64
	UserID string
	Fields models.TaskFields
}

type UpdateTaskStatusParams struct {
	ID     int64
	UserID string
	Status models.Status
}

type ListTasksParams struct {
	UserID    string
	Partition query.Partition
	Page      query.PageRequest
}

type FilterTasksParams struct {
	UserID   string
	Criteria query.Criteria
	Page     query.PageRequest
}
