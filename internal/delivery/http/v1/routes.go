package v1

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the health checks and the v1 API under router.
func RegisterRoutes(router gin.IRouter, h Handler, limiter *RateLimiter) {
	router.GET("/healthz", h.HandleLiveness)
	router.GET("/readyz", h.HandleReadiness)

	v1Router := router.Group("/api/v1")

	tasksRouter := v1Router.Group("/tasks")
	tasksRouter.Use(h.HandleAuthMiddleware, limiter.Handle)

	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.DELETE("", h.HandleDeleteAllTasks)

	tasksRouter.GET("/filter", h.HandleFilterTasks)
	tasksRouter.GET("/search", h.HandleSearchTasks)
	tasksRouter.GET("/status/:status", h.HandleGetTasksByStatus)
	tasksRouter.GET("/priority/:priority", h.HandleGetTasksByPriority)
	tasksRouter.GET("/archived", h.HandleGetArchivedTasks)
	tasksRouter.GET("/deleted", h.HandleGetDeletedTasks)
	tasksRouter.GET("/overdue", h.HandleGetOverdueTasks)
	tasksRouter.GET("/stats", h.HandleGetTaskStats)
	tasksRouter.GET("/events", h.HandleTaskEvents)

	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.PATCH("/:id/status", h.HandleSetTaskStatus)
	tasksRouter.PATCH("/:id/archive", h.HandleArchiveTask)
	tasksRouter.PATCH("/:id/unarchive", h.HandleUnarchiveTask)
	tasksRouter.PATCH("/:id/restore", h.HandleRestoreTask)
	tasksRouter.DELETE("/:id/permanent", h.HandlePurgeTask)
}
