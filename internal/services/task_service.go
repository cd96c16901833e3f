package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasks/internal/events"
	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/query"
	"github.com/adanyl0v/go-tasks/internal/storage"
)

var taskMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "task_mutations_total",
		Help: "Task mutations by operation and outcome",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(taskMutations)
}

type taskServiceImpl struct {
	logger    zerolog.Logger
	store     storage.TaskStore
	engine    *query.Engine
	publisher events.Publisher
	now       func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	store storage.TaskStore,
	engine *query.Engine,
	publisher events.Publisher,
) TaskService {
	return &taskServiceImpl{
		logger:    logger,
		store:     store,
		engine:    engine,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	task, err := s.store.Create(ctx, params.UserID, params.Fields)
	if err != nil {
		s.logMutationError(err, "create", params.UserID, 0)
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg("created task")
	s.publish(events.TaskCreated, task)
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, params TaskParams) (*models.Task, error) {
	task, err := s.store.GetByID(ctx, params.UserID, params.ID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Info().
				Int64("task_id", params.ID).
				Str("user_id", params.UserID).
				Msg("task not found")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", params.ID).
			Msg("failed to select task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("selected task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.store.Update(ctx, params.UserID, params.ID, params.Fields)
	if err != nil {
		s.logMutationError(err, "update", params.UserID, params.ID)
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg("updated task")
	s.publish(events.TaskUpdated, task)
	return task, nil
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error) {
	task, err := s.store.SetStatus(ctx, params.UserID, params.ID, params.Status)
	if err != nil {
		s.logMutationError(err, "set_status", params.UserID, params.ID)
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Str("status", string(task.Status)).
		Msg("updated task status")
	s.publish(events.TaskStatusChanged, task)
	return task, nil
}

func (s *taskServiceImpl) ArchiveTask(ctx context.Context, params TaskParams) (*models.Task, error) {
	return s.setArchived(ctx, params, true)
}

func (s *taskServiceImpl) UnarchiveTask(ctx context.Context, params TaskParams) (*models.Task, error) {
	return s.setArchived(ctx, params, false)
}

func (s *taskServiceImpl) setArchived(ctx context.Context, params TaskParams, archived bool) (*models.Task, error) {
	op, eventType, msg := "archive", events.TaskArchived, "archived task"
	if !archived {
		op, eventType, msg = "unarchive", events.TaskUnarchived, "unarchived task"
	}

	task, err := s.store.SetArchived(ctx, params.UserID, params.ID, archived)
	if err != nil {
		s.logMutationError(err, op, params.UserID, params.ID)
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg(msg)
	s.publish(eventType, task)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, params TaskParams) (*models.Task, error) {
	task, err := s.store.SoftDelete(ctx, params.UserID, params.ID)
	if err != nil {
		s.logMutationError(err, "delete", params.UserID, params.ID)
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Msg("deleted task")
	s.publish(events.TaskDeleted, task)
	return task, nil
}

func (s *taskServiceImpl) RestoreTask(ctx context.Context, params TaskParams) (*models.Task, error) {
	task, err := s.store.Restore(ctx, params.UserID, params.ID)
	if err != nil {
		s.logMutationError(err, "restore", params.UserID, params.ID)
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", params.UserID).
		Bool("archived", task.Archived).
		Msg("restored task")
	s.publish(events.TaskRestored, task)
	return task, nil
}

func (s *taskServiceImpl) PurgeTask(ctx context.Context, params TaskParams) error {
	err := s.store.HardDelete(ctx, params.UserID, params.ID)
	if err != nil {
		s.logMutationError(err, "purge", params.UserID, params.ID)
		return err
	}

	s.logger.Info().
		Int64("task_id", params.ID).
		Str("user_id", params.UserID).
		Msg("purged task")
	taskMutations.WithLabelValues("purge", "ok").Inc()
	s.publisher.Publish(events.Event{
		Type:       events.TaskPurged,
		UserID:     params.UserID,
		TaskID:     params.ID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *taskServiceImpl) DeleteAllTasks(ctx context.Context, userID string) (int64, error) {
	affected, err := s.store.SoftDeleteAll(ctx, userID)
	if err != nil {
		s.logMutationError(err, "delete_all", userID, 0)
		return 0, err
	}
	s.logger.Debug().
		Int64("affected", affected).
		Msg("soft-deleted tasks")

	s.logger.Info().
		Str("user_id", userID).
		Int64("affected", affected).
		Msg("deleted all tasks")
	taskMutations.WithLabelValues("delete_all", "ok").Inc()
	s.publisher.Publish(events.Event{
		Type:       events.TasksDeletedAll,
		UserID:     userID,
		Affected:   affected,
		OccurredAt: s.now().UTC(),
	})
	return affected, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error) {
	tasks, err := s.engine.View(ctx, params.UserID, params.Partition, params.Page.Sort)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Str("view", string(params.Partition)).
			Msg("failed to list tasks")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", params.UserID).
		Str("view", string(params.Partition)).
		Msg("listed tasks")
	return tasks, nil
}

func (s *taskServiceImpl) ListTasksPage(ctx context.Context, params ListTasksParams) (query.Page, error) {
	page, err := s.engine.ViewPage(ctx, params.UserID, params.Partition, params.Page)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Str("view", string(params.Partition)).
			Msg("failed to list tasks page")
		return query.Page{}, err
	}

	s.logger.Debug().
		Int("count", len(page.Content)).
		Int("total", page.TotalElements).
		Str("user_id", params.UserID).
		Msg("listed tasks page")
	return page, nil
}

func (s *taskServiceImpl) SearchTasks(ctx context.Context, params FilterTasksParams) ([]*models.Task, error) {
	tasks, err := s.engine.Select(ctx, params.UserID, params.Criteria, params.Page.Sort)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to search tasks")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", params.UserID).
		Str("keyword", params.Criteria.Keyword).
		Msg("searched tasks")
	return tasks, nil
}

func (s *taskServiceImpl) FilterTasks(ctx context.Context, params FilterTasksParams) (query.Page, error) {
	page, err := s.engine.Filter(ctx, params.UserID, params.Criteria, params.Page)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to filter tasks")
		return query.Page{}, err
	}

	s.logger.Debug().
		Int("count", len(page.Content)).
		Int("total", page.TotalElements).
		Int("page", page.Number).
		Str("user_id", params.UserID).
		Msg("filtered tasks")
	return page, nil
}

func (s *taskServiceImpl) GetOverdueTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.engine.Overdue(ctx, userID, s.now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select overdue tasks")
		return nil, err
	}
	return tasks, nil
}

func (s *taskServiceImpl) CountTasksByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	counts, err := s.engine.CountByStatus(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to count tasks")
		return nil, err
	}
	return counts, nil
}

func (s *taskServiceImpl) publish(t events.Type, task *models.Task) {
	taskMutations.WithLabelValues(opLabel(t), "ok").Inc()
	s.publisher.Publish(events.Event{
		Type:       t,
		UserID:     task.OwnerID,
		TaskID:     task.ID,
		Task:       task.Clone(),
		OccurredAt: task.UpdatedAt,
	})
}

// logMutationError logs expected failures (validation, missing task) at
// info level and everything else as an error.
func (s *taskServiceImpl) logMutationError(err error, op, userID string, taskID int64) {
	switch {
	case errors.Is(err, ErrInvalidTask):
		taskMutations.WithLabelValues(op, "invalid").Inc()
		s.logger.Info().
			Err(err).
			Str("op", op).
			Str("user_id", userID).
			Msg("rejected invalid task")
	case errors.Is(err, ErrTaskNotFound):
		taskMutations.WithLabelValues(op, "not_found").Inc()
		s.logger.Info().
			Str("op", op).
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
	default:
		taskMutations.WithLabelValues(op, "error").Inc()
		s.logger.Error().
			Err(err).
			Str("op", op).
			Int64("task_id", taskID).
			Msg("failed to mutate task")
	}
}

func opLabel(t events.Type) string {
	switch t {
	case events.TaskCreated:
		return "create"
	case events.TaskUpdated:
		return "update"
	case events.TaskStatusChanged:
		return "set_status"
	case events.TaskArchived:
		return "archive"
	case events.TaskUnarchived:
		return "unarchive"
	case events.TaskDeleted:
		return "delete"
	case events.TaskRestored:
		return "restore"
	}
	return string(t)
}
