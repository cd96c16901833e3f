package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasks/internal/events"
	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/query"
	"github.com/adanyl0v/go-tasks/internal/storage/memory"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.Type {
	types := make([]events.Type, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func newTestTaskService(t *testing.T) (TaskService, *recordingPublisher) {
	t.Helper()
	store := memory.New()
	engine := query.NewEngine(store, query.DefaultPageSize, query.DefaultMaxSize)
	pub := &recordingPublisher{}
	return NewTaskService(zerolog.Nop(), store, engine, pub), pub
}

func TestTaskServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestTaskService(t)

	task, err := svc.CreateTask(ctx, CreateTaskParams{
		UserID: "alice",
		Fields: models.TaskFields{Title: "write report"},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	params := TaskParams{ID: task.ID, UserID: "alice"}

	if _, err = svc.UpdateTaskStatus(ctx, UpdateTaskStatusParams{
		ID: task.ID, UserID: "alice", Status: models.StatusInProgress,
	}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if _, err = svc.ArchiveTask(ctx, params); err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}
	if _, err = svc.UnarchiveTask(ctx, params); err != nil {
		t.Fatalf("UnarchiveTask: %v", err)
	}
	if _, err = svc.DeleteTask(ctx, params); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	deleted, err := svc.ListTasks(ctx, ListTasksParams{UserID: "alice", Partition: query.PartitionDeleted})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != task.ID {
		t.Fatalf("deleted view = %v, want task %d", deleted, task.ID)
	}

	restored, err := svc.RestoreTask(ctx, params)
	if err != nil {
		t.Fatalf("RestoreTask: %v", err)
	}
	if restored.Deleted() || restored.Status != models.StatusInProgress {
		t.Fatalf("restored task = %+v", restored)
	}

	if err = svc.PurgeTask(ctx, params); err != nil {
		t.Fatalf("PurgeTask: %v", err)
	}
	if _, err = svc.GetTask(ctx, params); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("GetTask after purge: err = %v, want ErrTaskNotFound", err)
	}

	want := []events.Type{
		events.TaskCreated,
		events.TaskStatusChanged,
		events.TaskArchived,
		events.TaskUnarchived,
		events.TaskDeleted,
		events.TaskRestored,
		events.TaskPurged,
	}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	for _, e := range pub.events {
		if e.UserID != "alice" || e.TaskID != task.ID {
			t.Fatalf("event routed wrongly: %+v", e)
		}
	}
}

func TestTaskServiceRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestTaskService(t)

	_, err := svc.CreateTask(ctx, CreateTaskParams{
		UserID: "alice",
		Fields: models.TaskFields{Title: "   "},
	})
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("err = %v, want ErrInvalidTask", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("failed mutation published %v", pub.types())
	}

	_, err = svc.UpdateTask(ctx, UpdateTaskParams{
		ID: 42, UserID: "alice", Fields: models.TaskFields{Title: "x"},
	})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskServiceDeleteAll(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestTaskService(t)

	for _, title := range []string{"a", "b", "c"} {
		if _, err := svc.CreateTask(ctx, CreateTaskParams{
			UserID: "alice", Fields: models.TaskFields{Title: title},
		}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	if _, err := svc.CreateTask(ctx, CreateTaskParams{
		UserID: "bob", Fields: models.TaskFields{Title: "other"},
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	affected, err := svc.DeleteAllTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("DeleteAllTasks: %v", err)
	}
	if affected != 3 {
		t.Fatalf("affected = %d, want 3", affected)
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != events.TasksDeletedAll || last.Affected != 3 {
		t.Fatalf("last event = %+v", last)
	}

	page, err := svc.ListTasksPage(ctx, ListTasksParams{UserID: "bob", Partition: query.PartitionActive})
	if err != nil {
		t.Fatalf("ListTasksPage: %v", err)
	}
	if page.TotalElements != 1 {
		t.Fatalf("bob's tasks = %d, want 1", page.TotalElements)
	}
}

func TestTaskServiceQueries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestTaskService(t)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	inputs := []models.TaskFields{
		{Title: "Pay rent", DueDate: &past},
		{Title: "Plan trip", Description: "book RENTAL car", DueDate: &future},
		{Title: "Read", Status: models.StatusCompleted, DueDate: &past},
	}
	for _, fields := range inputs {
		if _, err := svc.CreateTask(ctx, CreateTaskParams{UserID: "alice", Fields: fields}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	found, err := svc.SearchTasks(ctx, FilterTasksParams{
		UserID:   "alice",
		Criteria: query.Criteria{Keyword: "rent"},
		Page:     query.PageRequest{Sort: query.DefaultSort()},
	})
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search found %d tasks, want 2", len(found))
	}

	overdue, err := svc.GetOverdueTasks(ctx, "alice")
	if err != nil {
		t.Fatalf("GetOverdueTasks: %v", err)
	}
	if len(overdue) != 1 || overdue[0].Title != "Pay rent" {
		t.Fatalf("overdue = %v, want only the incomplete past-due task", overdue)
	}

	counts, err := svc.CountTasksByStatus(ctx, "alice")
	if err != nil {
		t.Fatalf("CountTasksByStatus: %v", err)
	}
	if counts[models.StatusTodo] != 2 || counts[models.StatusCompleted] != 1 || counts[models.StatusInProgress] != 0 {
		t.Fatalf("counts = %v", counts)
	}

	todo := models.StatusTodo
	page, err := svc.FilterTasks(ctx, FilterTasksParams{
		UserID:   "alice",
		Criteria: query.Criteria{Status: &todo},
		Page:     query.PageRequest{Page: 0, Size: 1, Sort: query.DefaultSort()},
	})
	if err != nil {
		t.Fatalf("FilterTasks: %v", err)
	}
	if page.TotalElements != 2 || page.TotalPages != 2 || len(page.Content) != 1 {
		t.Fatalf("page = %+v", page)
	}
}
