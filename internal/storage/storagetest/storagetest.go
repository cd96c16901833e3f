// Package storagetest holds the behavioural contract every storage.TaskStore
// implementation must satisfy.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/storage"
)

// Factory returns an empty store. Implementations backed by shared resources
// should register cleanup on t.
type Factory func(t *testing.T) storage.TaskStore

func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAssignsFields", func(t *testing.T) { testCreateAssignsFields(t, newStore(t)) })
	t.Run("CreateRejectsBlankTitle", func(t *testing.T) { testCreateRejectsBlankTitle(t, newStore(t)) })
	t.Run("GetByIDOwnerScoped", func(t *testing.T) { testGetByIDOwnerScoped(t, newStore(t)) })
	t.Run("UpdateReplacesFields", func(t *testing.T) { testUpdateReplacesFields(t, newStore(t)) })
	t.Run("UpdateFailureLeavesTask", func(t *testing.T) { testUpdateFailureLeavesTask(t, newStore(t)) })
	t.Run("SetStatus", func(t *testing.T) { testSetStatus(t, newStore(t)) })
	t.Run("ArchiveIdempotent", func(t *testing.T) { testArchiveIdempotent(t, newStore(t)) })
	t.Run("SoftDeleteRestore", func(t *testing.T) { testSoftDeleteRestore(t, newStore(t)) })
	t.Run("HardDelete", func(t *testing.T) { testHardDelete(t, newStore(t)) })
	t.Run("SoftDeleteAll", func(t *testing.T) { testSoftDeleteAll(t, newStore(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, newStore(t)) })
}

const (
	owner = "owner-a"
	other = "owner-b"
)

func mustCreate(t *testing.T, s storage.TaskStore, ownerID, title string) *models.Task {
	t.Helper()
	task, err := s.Create(context.Background(), ownerID, models.TaskFields{Title: title})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func testCreateAssignsFields(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	task, err := s.Create(ctx, owner, models.TaskFields{
		Title:       "  Buy milk ",
		Description: "two liters",
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if task.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if task.Title != "Buy milk" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.Status != models.StatusTodo || task.Priority != models.PriorityHigh {
		t.Fatalf("unexpected status/priority: %s/%s", task.Status, task.Priority)
	}
	if task.Archived || task.DeletedAt != nil {
		t.Fatal("new task must be active")
	}
	if !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("created_at %s != updated_at %s", task.CreatedAt, task.UpdatedAt)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("due date not stored: %v", task.DueDate)
	}

	second := mustCreate(t, s, owner, "second")
	if second.ID == task.ID {
		t.Fatal("ids must be unique")
	}
}

func testCreateRejectsBlankTitle(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, owner, models.TaskFields{Title: title})
		if !errors.Is(err, models.ErrInvalidTask) {
			t.Fatalf("title %q: expected ErrInvalidTask, got %v", title, err)
		}
	}

	tasks, err := s.ListAll(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty store, got %d tasks", len(tasks))
	}
}

func testGetByIDOwnerScoped(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "mine")

	got, err := s.GetByID(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "mine" || got.OwnerID != owner {
		t.Fatalf("unexpected task: %+v", got)
	}

	if _, err = s.GetByID(ctx, other, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("other owner: expected ErrTaskNotFound, got %v", err)
	}
	if _, err = s.GetByID(ctx, owner, task.ID+1000); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("missing id: expected ErrTaskNotFound, got %v", err)
	}
	if _, err = s.SetArchived(ctx, other, task.ID, true); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("other owner archive: expected ErrTaskNotFound, got %v", err)
	}
}

func testUpdateReplacesFields(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "old")
	if _, err := s.SetArchived(ctx, owner, task.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	due := time.Date(2031, 5, 6, 0, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, owner, task.ID, models.TaskFields{
		Title:       " new ",
		Description: "desc",
		Status:      models.StatusInProgress,
		Priority:    models.PriorityLow,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "new" || updated.Description != "desc" ||
		updated.Status != models.StatusInProgress || updated.Priority != models.PriorityLow {
		t.Fatalf("fields not replaced: %+v", updated)
	}
	if !updated.Archived {
		t.Fatal("update must not touch the archived flag")
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Fatal("updated_at must advance")
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Fatal("created_at must not change")
	}

	cleared, err := s.Update(ctx, owner, task.ID, models.TaskFields{Title: "new"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cleared.DueDate != nil {
		t.Fatal("update must replace the due date")
	}
}

func testUpdateFailureLeavesTask(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "keep")

	_, err := s.Update(ctx, owner, task.ID, models.TaskFields{Title: "  ", Description: "lost"})
	if !errors.Is(err, models.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if _, err = s.Update(ctx, owner, task.ID+1000, models.TaskFields{Title: "x"}); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	got, err := s.GetByID(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "keep" || got.Description != "" || !got.UpdatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("failed update changed the task: %+v", got)
	}
}

func testSetStatus(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "flow")

	prev := task.UpdatedAt
	for _, status := range []models.Status{models.StatusCompleted, models.StatusTodo, models.StatusInProgress} {
		got, err := s.SetStatus(ctx, owner, task.ID, status)
		if err != nil {
			t.Fatalf("set status %s: %v", status, err)
		}
		if got.Status != status {
			t.Fatalf("status = %s, want %s", got.Status, status)
		}
		if !got.UpdatedAt.After(prev) {
			t.Fatalf("updated_at did not advance for %s", status)
		}
		prev = got.UpdatedAt
	}

	if _, err := s.SetStatus(ctx, owner, task.ID, "DONE"); !errors.Is(err, models.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if _, err := s.SetStatus(ctx, owner, task.ID+1000, models.StatusTodo); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func testArchiveIdempotent(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "archive me")

	first, err := s.SetArchived(ctx, owner, task.ID, true)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	second, err := s.SetArchived(ctx, owner, task.ID, true)
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if !first.Archived || !second.Archived {
		t.Fatal("task must stay archived")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatal("updated_at must advance on every archive call")
	}

	unarchived, err := s.SetArchived(ctx, owner, task.ID, false)
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if unarchived.Archived {
		t.Fatal("task must be unarchived")
	}
}

func testSoftDeleteRestore(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "bin")
	if _, err := s.SetArchived(ctx, owner, task.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	deleted, err := s.SoftDelete(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if deleted.DeletedAt == nil || !deleted.Archived {
		t.Fatalf("expected deleted and still archived: %+v", deleted)
	}

	got, err := s.GetByID(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("soft-deleted task must stay reachable by id: %v", err)
	}
	if got.DeletedAt == nil {
		t.Fatal("deletion mark not persisted")
	}

	restored, err := s.Restore(ctx, owner, task.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.DeletedAt != nil || !restored.Archived {
		t.Fatalf("restore must only clear the deletion mark: %+v", restored)
	}
	if !restored.UpdatedAt.After(deleted.UpdatedAt) {
		t.Fatal("updated_at must advance on restore")
	}

	if _, err = s.SoftDelete(ctx, other, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err = s.Restore(ctx, owner, task.ID+1000); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func testHardDelete(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	task := mustCreate(t, s, owner, "gone")

	if err := s.HardDelete(ctx, owner, task.ID); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if _, err := s.GetByID(ctx, owner, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound after hard delete, got %v", err)
	}
	if _, err := s.Restore(ctx, owner, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("restore must not resurrect, got %v", err)
	}
	if err := s.HardDelete(ctx, owner, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("second hard delete: expected ErrTaskNotFound, got %v", err)
	}

	next := mustCreate(t, s, owner, "after")
	if next.ID == task.ID {
		t.Fatal("hard-deleted id was reused")
	}
}

func testSoftDeleteAll(t *testing.T, s storage.TaskStore) {
	ctx := context.Background()
	a := mustCreate(t, s, owner, "a")
	b := mustCreate(t, s, owner, "b")
	mustCreate(t, s, other, "foreign")

	alreadyDeleted, err := s.SoftDelete(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	n, err := s.SoftDeleteAll(ctx, owner)
	if err != nil {
		t.Fatalf("soft delete all: %v", err)
	}
	if n != 1 {
		t.Fatalf("affected = %d, want 1", n)
	}

	gotA, err := s.GetByID(ctx, owner, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotA.DeletedAt == nil {
		t.Fatal("task a must be deleted")
	}

	gotB, err := s.GetByID(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !gotB.DeletedAt.Equal(*alreadyDeleted.DeletedAt) {
		t.Fatal("already deleted task must keep its deletion time")
	}

	foreign, err := s.ListAll(ctx, other)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(foreign) != 1 || foreign[0].DeletedAt != nil {
		t.Fatal("other owner's tasks must be untouched")
	}
}

func testConcurrentCreates(t *testing.T, s storage.TaskStore) {
	const workers, perWorker = 8, 10

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{})
	)
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				task, err := s.Create(context.Background(), owner, models.TaskFields{Title: "parallel"})
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				ids[task.ID] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("create: %v", err)
	}
	if len(ids) != workers*perWorker {
		t.Fatalf("got %d unique ids, want %d", len(ids), workers*perWorker)
	}
}
