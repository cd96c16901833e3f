package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/storage"
)

var _ storage.TaskStore = (*Store)(nil)

// Store keeps tasks in process memory. Writers hold the lock for the whole
// read-modify-write cycle, readers get copies.
type Store struct {
	mu     sync.RWMutex
	tasks  map[int64]*models.Task
	lastID int64
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		tasks: make(map[int64]*models.Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// dueDate stores due dates at the precision postgres keeps.
func dueDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := d.UTC().Truncate(time.Microsecond)
	return &v
}

func (s *Store) Create(_ context.Context, ownerID string, fields models.TaskFields) (*models.Task, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	now := s.timestamp()
	task := &models.Task{
		ID:          s.lastID,
		OwnerID:     ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		Priority:    fields.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.DueDate = dueDate(fields.DueDate)

	s.tasks[task.ID] = task
	return task.Clone(), nil
}

func (s *Store) GetByID(_ context.Context, ownerID string, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	return task.Clone(), nil
}

func (s *Store) Update(_ context.Context, ownerID string, id int64, fields models.TaskFields) (*models.Task, error) {
	fields, err := fields.Normalize()
	if err != nil {
		return nil, err
	}

	return s.mutate(ownerID, id, func(t *models.Task, _ time.Time) {
		t.Title = fields.Title
		t.Description = fields.Description
		t.Status = fields.Status
		t.Priority = fields.Priority
		t.DueDate = dueDate(fields.DueDate)
	})
}

func (s *Store) SetStatus(_ context.Context, ownerID string, id int64, status models.Status) (*models.Task, error) {
	if err := models.ValidateStatus(status); err != nil {
		return nil, err
	}

	return s.mutate(ownerID, id, func(t *models.Task, _ time.Time) {
		t.Status = status
	})
}

func (s *Store) SetArchived(_ context.Context, ownerID string, id int64, archived bool) (*models.Task, error) {
	return s.mutate(ownerID, id, func(t *models.Task, _ time.Time) {
		t.Archived = archived
	})
}

func (s *Store) SoftDelete(_ context.Context, ownerID string, id int64) (*models.Task, error) {
	return s.mutate(ownerID, id, func(t *models.Task, now time.Time) {
		t.DeletedAt = &now
	})
}

func (s *Store) Restore(_ context.Context, ownerID string, id int64) (*models.Task, error) {
	return s.mutate(ownerID, id, func(t *models.Task, _ time.Time) {
		t.DeletedAt = nil
	})
}

func (s *Store) HardDelete(_ context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ownerID, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) SoftDeleteAll(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	var affected int64
	for _, t := range s.tasks {
		if t.OwnerID != ownerID || t.Deleted() {
			continue
		}
		deletedAt := now
		t.DeletedAt = &deletedAt
		t.UpdatedAt = storage.NextUpdatedAt(now, t.UpdatedAt)
		affected++
	}
	return affected, nil
}

func (s *Store) ListAll(_ context.Context, ownerID string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Len reports how many tasks are stored across all owners.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) lookup(ownerID string, id int64) (*models.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, models.ErrTaskNotFound
	}
	return t, nil
}

// mutate applies fn to a working copy and swaps it in only once fn is done,
// so readers holding an older clone never observe a half-applied change.
func (s *Store) mutate(ownerID string, id int64, fn func(t *models.Task, now time.Time)) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	next := current.Clone()
	fn(next, now)
	next.UpdatedAt = storage.NextUpdatedAt(now, current.UpdatedAt)

	s.tasks[id] = next
	return next.Clone(), nil
}
