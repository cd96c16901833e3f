package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasks/internal/models"
	"github.com/adanyl0v/go-tasks/internal/query"
	"github.com/adanyl0v/go-tasks/internal/services"
)

type getTaskResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	StatusLabel   string     `json:"status_label"`
	Priority      string     `json:"priority"`
	PriorityLabel string     `json:"priority_label"`
	DueDate       *time.Time `json:"due_date"`
	Archived      bool       `json:"archived"`
	DeletedAt     *time.Time `json:"deleted_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        string(task.Status),
		StatusLabel:   statusLabel(task.Status),
		Priority:      string(task.Priority),
		PriorityLabel: priorityLabel(task.Priority),
		DueDate:       task.DueDate,
		Archived:      task.Archived,
		DeletedAt:     task.DeletedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

func newGetTasksResponse(tasks []*models.Task) []getTaskResponse {
	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}
	return response
}

type getTasksPageResponse struct {
	Content       []getTaskResponse `json:"content"`
	TotalElements int               `json:"total_elements"`
	TotalPages    int               `json:"total_pages"`
	Size          int               `json:"size"`
	Number        int               `json:"number"`
}

func newGetTasksPageResponse(page query.Page) getTasksPageResponse {
	return getTasksPageResponse{
		Content:       newGetTasksResponse(page.Content),
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		Size:          page.Size,
		Number:        page.Number,
	}
}

// taskRequest carries every writable field. Create and update share it:
// an update replaces all fields, so omitted ones fall back to defaults.
type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (r taskRequest) fields() models.TaskFields {
	return models.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		Status:      models.Status(strings.ToUpper(strings.TrimSpace(r.Status))),
		Priority:    models.Priority(strings.ToUpper(strings.TrimSpace(r.Priority))),
		DueDate:     r.DueDate,
	}
}

type setTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID: getUserID(c),
		Fields: req.fields(),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	partition, err := query.ParsePartition(c.Query("view"))
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}

	params := services.ListTasksParams{
		UserID:    getUserID(c),
		Partition: partition,
		Page:      parsePageRequest(c),
	}

	if paginate, _ := strconv.ParseBool(c.Query("paginate")); paginate {
		page, err := h.tasks.ListTasksPage(c, params)
		if err != nil {
			h.abortWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, newGetTasksPageResponse(page))
		return
	}

	tasks, err := h.tasks.ListTasks(c, params)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleGetArchivedTasks(c *gin.Context) {
	h.listPartition(c, query.PartitionArchived)
}

func (h *handlerImpl) HandleGetDeletedTasks(c *gin.Context) {
	h.listPartition(c, query.PartitionDeleted)
}

func (h *handlerImpl) listPartition(c *gin.Context, partition query.Partition) {
	tasks, err := h.tasks.ListTasks(c, services.ListTasksParams{
		UserID:    getUserID(c),
		Partition: partition,
		Page:      parsePageRequest(c),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleFilterTasks(c *gin.Context) {
	criteria, err := parseCriteria(c)
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}

	page, err := h.tasks.FilterTasks(c, services.FilterTasksParams{
		UserID:   getUserID(c),
		Criteria: criteria,
		Page:     parsePageRequest(c),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTasksPageResponse(page))
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	h.searchTasks(c, query.Criteria{Keyword: c.Query("keyword")})
}

func (h *handlerImpl) HandleGetTasksByStatus(c *gin.Context) {
	status, err := parseStatus(c.Param("status"))
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}
	h.searchTasks(c, query.Criteria{Status: &status})
}

func (h *handlerImpl) HandleGetTasksByPriority(c *gin.Context) {
	priority, err := parsePriority(c.Param("priority"))
	if err != nil {
		abort(c, newBadRequestError(err.Error()))
		return
	}
	h.searchTasks(c, query.Criteria{Priority: &priority})
}

func (h *handlerImpl) searchTasks(c *gin.Context, criteria query.Criteria) {
	tasks, err := h.tasks.SearchTasks(c, services.FilterTasksParams{
		UserID:   getUserID(c),
		Criteria: criteria,
		Page:     parsePageRequest(c),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

func (h *handlerImpl) HandleGetOverdueTasks(c *gin.Context) {
	tasks, err := h.tasks.GetOverdueTasks(c, getUserID(c))
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTasksResponse(tasks))
}

type getTaskStatsResponse struct {
	Counts map[models.Status]int `json:"counts"`
	Total  int                   `json:"total"`
}

func (h *handlerImpl) HandleGetTaskStats(c *gin.Context) {
	counts, err := h.tasks.CountTasksByStatus(c, getUserID(c))
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	response := getTaskStatsResponse{Counts: counts}
	for _, n := range counts {
		response.Total += n
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	params, ok := taskParams(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, params)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	params, ok := taskParams(c)
	if !ok {
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:     params.ID,
		UserID: params.UserID,
		Fields: req.fields(),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	params, ok := taskParams(c)
	if !ok {
		return
	}

	var req setTaskStatusRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTaskStatus(c, services.UpdateTaskStatusParams{
		ID:     params.ID,
		UserID: params.UserID,
		Status: models.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleArchiveTask(c *gin.Context) {
	h.transition(c, h.tasks.ArchiveTask)
}

func (h *handlerImpl) HandleUnarchiveTask(c *gin.Context) {
	h.transition(c, h.tasks.UnarchiveTask)
}

func (h *handlerImpl) HandleRestoreTask(c *gin.Context) {
	h.transition(c, h.tasks.RestoreTask)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	h.transition(c, h.tasks.DeleteTask)
}

func (h *handlerImpl) transition(
	c *gin.Context,
	fn func(ctx context.Context, params services.TaskParams) (*models.Task, error),
) {
	params, ok := taskParams(c)
	if !ok {
		return
	}

	task, err := fn(c, params)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandlePurgeTask(c *gin.Context) {
	params, ok := taskParams(c)
	if !ok {
		return
	}

	err := h.tasks.PurgeTask(c, params)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteAllTasks(c *gin.Context) {
	affected, err := h.tasks.DeleteAllTasks(c, getUserID(c))
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

func taskParams(c *gin.Context) (services.TaskParams, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return services.TaskParams{}, false
	}
	return services.TaskParams{ID: id, UserID: getUserID(c)}, true
}

// parsePageRequest never fails: malformed numbers are left at zero and the
// query engine substitutes its defaults.
func parsePageRequest(c *gin.Context) query.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	return query.PageRequest{
		Page: page,
		Size: size,
		Sort: query.ParseSort(c.Query("sortBy"), c.Query("sortDir")),
	}
}

func parseCriteria(c *gin.Context) (query.Criteria, error) {
	var criteria query.Criteria

	if v := c.Query("status"); v != "" {
		status, err := parseStatus(v)
		if err != nil {
			return criteria, err
		}
		criteria.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority, err := parsePriority(v)
		if err != nil {
			return criteria, err
		}
		criteria.Priority = &priority
	}
	if v := c.Query("archived"); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, errInvalidQueryParam("archived", v)
		}
		criteria.Archived = &archived
	}
	if v := c.Query("deleted"); v != "" {
		deleted, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, errInvalidQueryParam("deleted", v)
		}
		criteria.Deleted = deleted
	}
	criteria.Keyword = c.Query("keyword")
	return criteria, nil
}

func parseStatus(v string) (models.Status, error) {
	status := models.Status(strings.ToUpper(strings.TrimSpace(v)))
	if !status.Valid() {
		return "", errInvalidQueryParam("status", v)
	}
	return status, nil
}

func parsePriority(v string) (models.Priority, error) {
	priority := models.Priority(strings.ToUpper(strings.TrimSpace(v)))
	if !priority.Valid() {
		return "", errInvalidQueryParam("priority", v)
	}
	return priority, nil
}

func errInvalidQueryParam(name, value string) apiError {
	return newBadRequestError("invalid " + name + ": " + strconv.Quote(value))
}
