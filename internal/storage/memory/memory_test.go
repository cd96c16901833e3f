package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/storage"
	"github.com/adanyl0v/go-tasks/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.TaskStore {
		return New()
	})
}

func TestStoreFrozenClockStillAdvancesUpdatedAt(t *testing.T) {
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	task, err := s.Create(ctx, "u", models.TaskFields{Title: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := s.SetArchived(ctx, "u", task.ID, true)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	b, err := s.SetArchived(ctx, "u", task.ID, true)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !a.UpdatedAt.After(task.UpdatedAt) || !b.UpdatedAt.After(a.UpdatedAt) {
		t.Fatalf("updated_at must strictly advance: %s, %s, %s", task.UpdatedAt, a.UpdatedAt, b.UpdatedAt)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	task, err := s.Create(ctx, "u", models.TaskFields{Title: "original"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	task.Title = "mutated by caller"

	got, err := s.GetByID(ctx, "u", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "original" {
		t.Fatalf("caller mutation leaked into the store: %q", got.Title)
	}
}

func TestStoreConcurrentReadersSeeWholeRecords(t *testing.T) {
	s := New()
	ctx := context.Background()

	task, err := s.Create(ctx, "u", models.TaskFields{Title: "a", Description: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			v := "a"
			if i%2 == 1 {
				v = "b"
			}
			_, _ = s.Update(ctx, "u", task.ID, models.TaskFields{Title: v, Description: v})
		}
	}()

	for i := 0; i < 1000; i++ {
		tasks, err := s.ListAll(ctx, "u")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) != 1 {
			t.Fatalf("got %d tasks", len(tasks))
		}
		if tasks[0].Title != tasks[0].Description {
			t.Fatalf("torn record: title=%q description=%q", tasks[0].Title, tasks[0].Description)
		}
	}
	close(stop)
	wg.Wait()
}

func TestStoreTruncatesDueDateToMicroseconds(t *testing.T) {
	s := New()
	ctx := context.Background()

	moscow := time.FixedZone("MSK", 3*60*60)
	due := time.Date(2026, 3, 1, 9, 30, 0, 123456789, moscow)
	want := time.Date(2026, 3, 1, 6, 30, 0, 123456000, time.UTC)

	task, err := s.Create(ctx, "u", models.TaskFields{Title: "t", DueDate: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.DueDate == nil || !task.DueDate.Equal(want) || task.DueDate.Location() != time.UTC {
		t.Fatalf("created due date = %v, want %v", task.DueDate, want)
	}

	later := due.Add(time.Hour)
	updated, err := s.Update(ctx, "u", task.ID, models.TaskFields{Title: "t", DueDate: &later})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.DueDate.Equal(want.Add(time.Hour)) || updated.DueDate.Nanosecond()%1000 != 0 {
		t.Fatalf("updated due date = %v, want %v", updated.DueDate, want.Add(time.Hour))
	}
}
