package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasks/internal/events"
	"github.com/adanyl0v/go-tasks/internal/services"
)

type Handler interface {
	HandleRequestID(c *gin.Context)
	HandleMetrics(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleLiveness(c *gin.Context)
	HandleReadiness(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleFilterTasks(c *gin.Context)
	HandleSearchTasks(c *gin.Context)
	HandleGetTasksByStatus(c *gin.Context)
	HandleGetTasksByPriority(c *gin.Context)
	HandleGetArchivedTasks(c *gin.Context)
	HandleGetDeletedTasks(c *gin.Context)
	HandleGetOverdueTasks(c *gin.Context)
	HandleGetTaskStats(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleSetTaskStatus(c *gin.Context)
	HandleArchiveTask(c *gin.Context)
	HandleUnarchiveTask(c *gin.Context)
	HandleRestoreTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandlePurgeTask(c *gin.Context)
	HandleDeleteAllTasks(c *gin.Context)

	HandleTaskEvents(c *gin.Context)
}

// EventSource is the subscribing half of the events hub.
type EventSource interface {
	Subscribe(userID string) (<-chan events.Event, func())
}

// Pinger reports whether the task store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	tasks  services.TaskService
	feed   EventSource
	store  Pinger
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
	feed EventSource,
	store Pinger,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		tasks:  taskService,
		feed:   feed,
		store:  store,
	}
}
