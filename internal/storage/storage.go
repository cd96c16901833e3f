package storage

import (
	"context"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
)

// TaskStore is the single source of truth for task records.
//
// Every operation is scoped by owner: a task that belongs to another owner
// is reported as models.ErrTaskNotFound. Mutations are all-or-nothing and
// return the record as stored after the change.
type TaskStore interface {
	// Create validates the fields and stores a new, active task.
	//
	// It returns an error wrapping models.ErrInvalidTask if the
	// title is blank or any field is out of range.
	Create(ctx context.Context, ownerID string, fields models.TaskFields) (*models.Task, error)

	// GetByID returns the task regardless of its archived or deleted state.
	GetByID(ctx context.Context, ownerID string, id int64) (*models.Task, error)

	// Update replaces all caller-settable fields at once. The archived
	// flag and the deletion mark are left untouched.
	Update(ctx context.Context, ownerID string, id int64, fields models.TaskFields) (*models.Task, error)

	SetStatus(ctx context.Context, ownerID string, id int64, status models.Status) (*models.Task, error)
	SetArchived(ctx context.Context, ownerID string, id int64, archived bool) (*models.Task, error)
	SoftDelete(ctx context.Context, ownerID string, id int64) (*models.Task, error)
	Restore(ctx context.Context, ownerID string, id int64) (*models.Task, error)

	// HardDelete removes the task permanently. Its id is never reused.
	HardDelete(ctx context.Context, ownerID string, id int64) error

	// SoftDeleteAll marks every non-deleted task of the owner as deleted
	// and returns how many tasks were affected.
	SoftDeleteAll(ctx context.Context, ownerID string) (int64, error)

	// ListAll returns a consistent snapshot of the owner's tasks in
	// no particular order.
	ListAll(ctx context.Context, ownerID string) ([]*models.Task, error)

	Ping(ctx context.Context) error
}

// NextUpdatedAt returns the timestamp a mutation should record. It never
// returns a value at or before prev, so updated_at strictly advances even
// when the clock did not move.
func NextUpdatedAt(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
