package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Status      string  `json:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *Date   `json:"due_date"`
	AssignedTo  *uint64 `json:"assigned_to" binding:"omitempty,gt=0"`
}

func (r *CreateTaskRequest) Sanitize() {
	r.Title = Sanitize(r.Title)
	sanitizePtr(r.Description)
}

// Validate checks rules that need the current time.
func (r *CreateTaskRequest) Validate(now time.Time) error {
	ve := &ValidationError{}
	if r.DueDate != nil && !r.DueDate.After(now) {
		ve.add("due_date", "must be in the future")
	}
	return ve.orNil()
}

func (r *CreateTaskRequest) ToModel() *models.Task {
	task := &models.Task{
		Title:      r.Title,
		Status:     models.TaskStatus(r.Status),
		Priority:   models.TaskPriority(r.Priority),
		AssignedTo: r.AssignedTo,
	}
	if r.Description != nil {
		task.Description = *r.Description
	}
	if r.DueDate != nil {
		due := models.DateOnly(r.DueDate.Time)
		task.DueDate = &due
	}
	return task
}

// UpdateTaskRequest is the body of PUT /api/tasks/:id. Absent keys are left
// unchanged; null clears description, due_date and assigned_to.
type UpdateTaskRequest struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Status      Optional[string] `json:"status"`
	Priority    Optional[string] `json:"priority"`
	DueDate     Optional[Date]   `json:"due_date"`
	AssignedTo  Optional[uint64] `json:"assigned_to"`
}

func (r *UpdateTaskRequest) Sanitize() {
	sanitizeOptional(&r.Title)
	sanitizeOptional(&r.Description)
}

func (r *UpdateTaskRequest) IsEmpty() bool {
	return !r.Title.Set && !r.Description.Set && !r.Status.Set &&
		!r.Priority.Set && !r.DueDate.Set && !r.AssignedTo.Set
}

func (r *UpdateTaskRequest) Validate() error {
	if r.IsEmpty() {
		return apperrors.EmptyUpdate()
	}

	ve := &ValidationError{}
	checkOptional(ve, "title", r.Title, false, "min=1,max=200")
	checkOptional(ve, "description", r.Description, true, "max=5000")
	checkOptional(ve, "status", r.Status, false, "oneof=todo in-progress done")
	checkOptional(ve, "priority", r.Priority, false, "oneof=low medium high")
	checkOptional(ve, "due_date", r.DueDate, true, "")
	checkOptional(ve, "assigned_to", r.AssignedTo, true, "gt=0")
	return ve.orNil()
}

func (r *UpdateTaskRequest) Changes() repository.TaskChanges {
	changes := repository.TaskChanges{
		Title:         r.Title.Ptr(),
		Description:   r.Description.Ptr(),
		AssignedTo:    r.AssignedTo.Ptr(),
		ClearDueDate:  r.DueDate.Set && r.DueDate.Null,
		ClearAssignee: r.AssignedTo.Set && r.AssignedTo.Null,
	}
	if r.Description.Set && r.Description.Null {
		empty := ""
		changes.Description = &empty
	}
	if r.Status.HasValue() {
		status := models.TaskStatus(r.Status.Value)
		changes.Status = &status
	}
	if r.Priority.HasValue() {
		priority := models.TaskPriority(r.Priority.Value)
		changes.Priority = &priority
	}
	if r.DueDate.HasValue() {
		due := models.DateOnly(r.DueDate.Value.Time)
		changes.DueDate = &due
	}
	return changes
}

// AssignTaskRequest is the body of PATCH /api/tasks/:id/assign. A null or
// absent assigned_to unassigns the task.
type AssignTaskRequest struct {
	AssignedTo Optional[uint64] `json:"assigned_to"`
}

func (r *AssignTaskRequest) Validate() error {
	ve := &ValidationError{}
	checkOptional(ve, "assigned_to", r.AssignedTo, true, "gt=0")
	return ve.orNil()
}

func (r *AssignTaskRequest) Changes() repository.TaskChanges {
	if !r.AssignedTo.HasValue() {
		return repository.TaskChanges{ClearAssignee: true}
	}
	return repository.TaskChanges{AssignedTo: r.AssignedTo.Ptr()}
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in-progress done"`
}

type ChangePriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=low medium high"`
}

// BulkUpdateRequest is the body of POST /api/tasks/bulk-update
type BulkUpdateRequest struct {
	TaskIDs    []uint64          `json:"taskIds" binding:"dive,gt=0"`
	UpdateData BulkUpdateChanges `json:"updateData"`
}

// BulkUpdateChanges is restricted to the fields that can change in bulk.
type BulkUpdateChanges struct {
	Status     Optional[string] `json:"status"`
	Priority   Optional[string] `json:"priority"`
	AssignedTo Optional[uint64] `json:"assigned_to"`
}

func (r *BulkUpdateRequest) Validate() error {
	if !r.UpdateData.Status.Set && !r.UpdateData.Priority.Set && !r.UpdateData.AssignedTo.Set {
		return apperrors.EmptyInput("update data is required")
	}

	ve := &ValidationError{}
	checkOptional(ve, "updateData.status", r.UpdateData.Status, false, "oneof=todo in-progress done")
	checkOptional(ve, "updateData.priority", r.UpdateData.Priority, false, "oneof=low medium high")
	checkOptional(ve, "updateData.assigned_to", r.UpdateData.AssignedTo, true, "gt=0")
	return ve.orNil()
}

func (r *BulkUpdateRequest) Changes() repository.BulkTaskChanges {
	changes := repository.BulkTaskChanges{
		AssignedTo:    r.UpdateData.AssignedTo.Ptr(),
		ClearAssignee: r.UpdateData.AssignedTo.Set && r.UpdateData.AssignedTo.Null,
	}
	if r.UpdateData.Status.HasValue() {
		status := models.TaskStatus(r.UpdateData.Status.Value)
		changes.Status = &status
	}
	if r.UpdateData.Priority.HasValue() {
		priority := models.TaskPriority(r.UpdateData.Priority.Value)
		changes.Priority = &priority
	}
	return changes
}

// TaskQuery holds the list options of GET /api/tasks and GET /api/tasks/search.
// Unknown sortBy and sortOrder values fall back to created_at and desc.
type TaskQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority   string `form:"priority" binding:"omitempty,oneof=low medium high"`
	AssignedTo string `form:"assignedTo"`
	Search     string `form:"search" binding:"max=100"`
	SortBy     string `form:"sortBy,default=created_at"`
	SortOrder  string `form:"sortOrder,default=desc"`
	Limit      int    `form:"limit,default=50" binding:"min=1,max=100"`
	Offset     int    `form:"offset,default=0" binding:"min=0"`
}

func (q *TaskQuery) Sanitize() {
	q.Search = Sanitize(q.Search)
	q.AssignedTo = Sanitize(q.AssignedTo)
	q.SortBy = Sanitize(q.SortBy)
	q.SortOrder = Sanitize(q.SortOrder)
}

// Filter converts the query into list options.
func (q *TaskQuery) Filter() (repository.TaskFilter, error) {
	assignee, err := ParseAssignee(q.AssignedTo)
	if err != nil {
		return repository.TaskFilter{}, err
	}

	return repository.TaskFilter{
		Status:     q.Status,
		Priority:   q.Priority,
		AssignedTo: assignee,
		Search:     q.Search,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}

// ParseAssignee accepts "", "unassigned" or a positive integer.
func ParseAssignee(value string) (repository.AssigneeFilter, error) {
	switch value {
	case "":
		return repository.AssigneeFilter{}, nil
	case constants.AssigneeUnassigned:
		return repository.AssigneeFilter{Unassigned: true}, nil
	}

	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return repository.AssigneeFilter{}, &ValidationError{Fields: []FieldError{{
			Field:   "assignedTo",
			Message: fmt.Sprintf("must be a positive integer or %q", constants.AssigneeUnassigned),
		}}}
	}
	return repository.AssigneeFilter{UserID: id}, nil
}

// SearchTaskQuery is TaskQuery with a required search term in q.
type SearchTaskQuery struct {
	TaskQuery
	Q string `form:"q" binding:"required,max=100"`
}

func (q *SearchTaskQuery) Sanitize() {
	q.TaskQuery.Sanitize()
	q.Q = Sanitize(q.Q)
}

func (q *SearchTaskQuery) Filter() (repository.TaskFilter, error) {
	filter, err := q.TaskQuery.Filter()
	filter.Search = q.Q
	return filter, err
}

// UserTasksQuery holds the options of GET /api/users/:id/tasks
type UserTasksQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=todo in-progress done"`
	Priority string `form:"priority" binding:"omitempty,oneof=low medium high"`
	Limit    int    `form:"limit,default=50" binding:"min=1,max=100"`
	Offset   int    `form:"offset,default=0" binding:"min=0"`
}

func (q *UserTasksQuery) Sanitize() {}

// SuggestTasksRequest is the body of POST /api/tasks/suggest
type SuggestTasksRequest struct {
	Text string `json:"text" binding:"required,min=1,max=5000"`
}

func (r *SuggestTasksRequest) Sanitize() {
	r.Text = Sanitize(r.Text)
}

// AssignedUserDTO is the assignee summary embedded in tasks
type AssignedUserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	DueDate      *string             `json:"due_date"`
	AssignedTo   *uint64             `json:"assigned_to"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	AssignedUser *AssignedUserDTO    `json:"assigned_user,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     formatDate(task.DueDate),
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee != nil && task.Assignee.ID != 0 {
		dto.AssignedUser = &AssignedUserDTO{
			ID:       task.Assignee.ID,
			Username: task.Assignee.Username,
			FullName: task.Assignee.FullName,
		}
	}

	return dto
}

func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
