package query

import (
	"context"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
)

const (
	DefaultPageSize = 10
	DefaultMaxSize  = 100
)

// Snapshotter is the part of the task store the engine reads from.
type Snapshotter interface {
	ListAll(ctx context.Context, ownerID string) ([]*models.Task, error)
}

// Engine computes read-only views over the store's current contents. Every
// call takes a fresh snapshot, so views never diverge from the store.
type Engine struct {
	store           Snapshotter
	defaultPageSize int
	maxPageSize     int
}

func NewEngine(store Snapshotter, defaultPageSize, maxPageSize int) *Engine {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = max(DefaultMaxSize, defaultPageSize)
	}
	return &Engine{
		store:           store,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// View lists one partition in full.
func (e *Engine) View(ctx context.Context, ownerID string, p Partition, s Sort) ([]*models.Task, error) {
	return e.Select(ctx, ownerID, CriteriaFor(p), s)
}

// ViewPage lists one partition a page at a time.
func (e *Engine) ViewPage(ctx context.Context, ownerID string, p Partition, req PageRequest) (Page, error) {
	return e.Filter(ctx, ownerID, CriteriaFor(p), req)
}

// Select returns every task matching c, sorted, without slicing.
func (e *Engine) Select(ctx context.Context, ownerID string, c Criteria, s Sort) ([]*models.Task, error) {
	tasks, err := e.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if s.Key == "" {
		s = DefaultSort()
	}
	out := selectTasks(tasks, c.Match)
	s.Apply(out)
	return out, nil
}

// Filter returns one page of the tasks matching c.
func (e *Engine) Filter(ctx context.Context, ownerID string, c Criteria, req PageRequest) (Page, error) {
	req = e.normalize(req)
	tasks, err := e.Select(ctx, ownerID, c, req.Sort)
	if err != nil {
		return Page{}, err
	}
	return Paginate(tasks, req.Page, req.Size), nil
}

// Overdue lists live, unfinished tasks whose due date is before now,
// earliest due first.
func (e *Engine) Overdue(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error) {
	tasks, err := e.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := selectTasks(tasks, func(t *models.Task) bool {
		return overdue(t, now)
	})
	Sort{Key: SortByDueDate}.Apply(out)
	return out, nil
}

// CountByStatus counts non-deleted tasks per status. Every status is
// present in the result, zero counts included.
func (e *Engine) CountByStatus(ctx context.Context, ownerID string) (map[models.Status]int, error) {
	tasks, err := e.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, t := range tasks {
		if !t.Deleted() {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (e *Engine) normalize(req PageRequest) PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size < 1 {
		req.Size = e.defaultPageSize
	}
	if req.Size > e.maxPageSize {
		req.Size = e.maxPageSize
	}
	if req.Sort.Key == "" {
		req.Sort = DefaultSort()
	}
	return req
}
