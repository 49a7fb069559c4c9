package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

const errCodeNoTasksSuggested = "NO_TASKS_SUGGESTED"

type TaskHandler struct {
	tasks *services.TaskService
	log   zerolog.Logger
}

func NewTaskHandler(tasks *services.TaskService, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
		log:   log.With().Str("handler", "tasks").Logger(),
	}
}

// ListTasks returns one page of tasks matching the query string
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var q dto.TaskQuery
	if !bindQuery(c, &q) {
		return
	}

	filter, err := q.Filter()
	if err != nil {
		respondInvalid(c, err)
		return
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToTaskDTOs(tasks), dto.NewTaskListMeta(len(tasks), total, q)))
}

// SearchTasks is ListTasks with a required search term
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	var q dto.SearchTaskQuery
	if !bindQuery(c, &q) {
		return
	}

	filter, err := q.Filter()
	if err != nil {
		respondInvalid(c, err)
		return
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := dto.NewTaskListMeta(len(tasks), total, q.TaskQuery)
	meta.SearchTerm = q.Q
	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToTaskDTOs(tasks), meta))
}

func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(stats))
}

// OverdueTasks returns every open task whose due date has passed
func (h *TaskHandler) OverdueTasks(c *gin.Context) {
	tasks, err := h.tasks.OverdueTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToTaskDTOs(tasks), dto.CollectionMeta{Count: len(tasks), Type: "overdue"}))
}

// TasksByStatus returns every task with the status in the path
func (h *TaskHandler) TasksByStatus(c *gin.Context) {
	status := models.TaskStatus(c.Param("status"))
	if !status.Valid() {
		apperrors.BadRequestWithDetails(c, "Invalid status", []dto.FieldError{{
			Field:   "status",
			Message: "must be one of: todo, in-progress, done",
		}})
		return
	}

	tasks, err := h.tasks.TasksByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToTaskDTOs(tasks), dto.CollectionMeta{Count: len(tasks), Status: string(status)}))
}

// SuggestTasks drafts tasks from free text. Nothing is stored.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	var req dto.SuggestTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestions, err := h.tasks.SuggestTasks(c.Request.Context(), req.Text)
	switch {
	case err == nil:
	case stderrors.Is(err, services.ErrAIServiceNotConfigured):
		apperrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY.")
		return
	case stderrors.Is(err, services.ErrAINoTasksGenerated), stderrors.Is(err, services.ErrAINoValidTasks):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apperrors.NewAPIError(errCodeNoTasksSuggested, err.Error()))
		return
	default:
		h.log.Error().Err(err).Msg("task suggestion failed")
		apperrors.InternalError(c, "Failed to suggest tasks")
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMeta(suggestions, dto.CollectionMeta{Count: len(suggestions), Type: "suggested"}))
}

// GetTask returns the task loaded by middleware.LoadTask
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.InternalError(c, "Task not found in context")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToTaskDTO(*task)))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(h.tasks.Now()); err != nil {
		respondInvalid(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OKWithMessage(dto.ToTaskDTO(*task), "Task created successfully"))
}

// UpdateTask applies the fields present in the body to the loaded task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), task, req.Changes())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage(dto.ToTaskDTO(*task), "Task updated successfully"))
}

// AssignTask sets or clears the assignee of the loaded task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.AssignTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), task, req.Changes())
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Task assigned successfully"
	if task.AssignedTo == nil {
		message = "Task unassigned successfully"
	}
	c.JSON(http.StatusOK, dto.OKWithMessage(dto.ToTaskDTO(*task), message))
}

func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.ChangeStatus(c.Request.Context(), task, models.TaskStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage(dto.ToTaskDTO(*task), "Task status updated successfully"))
}

func (h *TaskHandler) ChangePriority(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apperrors.InternalError(c, "Task not found in context")
		return
	}

	var req dto.ChangePriorityRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.ChangePriority(c.Request.Context(), task, models.TaskPriority(req.Priority))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage(dto.ToTaskDTO(*task), "Task priority updated successfully"))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := middleware.ParseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BulkUpdate applies the same changes to every listed task, all or nothing
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	tasks, err := h.tasks.BulkUpdate(c.Request.Context(), req.TaskIDs, req.Changes())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    dto.ToTaskDTOs(tasks),
		Meta:    dto.CollectionMeta{Count: len(tasks)},
		Message: fmt.Sprintf("%d tasks updated successfully", len(tasks)),
	})
}
