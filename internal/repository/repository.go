package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a task, applying default status and priority
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with its assignee loaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves one page of tasks matching filter and the total match count
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListOverdue retrieves tasks due before today that are not done, earliest first
	ListOverdue(ctx context.Context) ([]models.Task, error)

	// Update applies changes and refreshes task from the persisted row
	Update(ctx context.Context, task *models.Task, changes TaskChanges) error

	// Delete removes a task
	Delete(ctx context.Context, id uint64) error

	// BulkUpdate applies the same changes to every listed task atomically
	BulkUpdate(ctx context.Context, ids []uint64, changes BulkTaskChanges) ([]models.Task, error)

	// Stats computes task counts across all tasks
	Stats(ctx context.Context) (*TaskStats, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves one page of users matching filter and the total match count
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// Search ranks users by which field matched the term
	Search(ctx context.Context, term string, limit, offset int) ([]models.User, error)

	// Update applies changes and refreshes user from the persisted row
	Update(ctx context.Context, user *models.User, changes UserChanges) error

	// Delete unassigns the user's tasks and removes the user in one transaction.
	// It returns the number of tasks that were unassigned.
	Delete(ctx context.Context, id uint64) (int64, error)

	// Stats computes task counts for tasks assigned to the user
	Stats(ctx context.Context, id uint64) (*TaskStats, error)
}

// AssigneeFilter has three states: the zero value does not filter,
// Unassigned matches tasks without an assignee and a non-zero UserID
// matches that user's tasks.
type AssigneeFilter struct {
	Unassigned bool
	UserID     uint64
}

func (f AssigneeFilter) IsSet() bool {
	return f.Unassigned || f.UserID != 0
}

// TaskFilter holds filtering, sorting and pagination options for listing
// tasks. Status and Priority are matched as given; callers validate them.
// SortBy outside TaskSortColumns falls back to created_at and SortOrder other
// than "asc" sorts descending.
type TaskFilter struct {
	Status     string
	Priority   string
	AssignedTo AssigneeFilter
	Search     string
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// UserFilter holds sorting, search and pagination options for listing users.
type UserFilter struct {
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// TaskSortColumns is the allow-list of task sort columns.
var TaskSortColumns = []string{"id", "title", "status", "priority", "due_date", "created_at", "updated_at"}

// UserSortColumns is the allow-list of user sort columns.
var UserSortColumns = []string{"id", "username", "email", "full_name", "created_at", "updated_at"}

const DefaultSortColumn = "created_at"

// TaskChanges is a partial task update. Nil fields are left unchanged;
// ClearDueDate and ClearAssignee set the column to NULL and win over a value.
type TaskChanges struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedTo    *uint64
	ClearAssignee bool
}

func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil && c.Priority == nil &&
		c.DueDate == nil && !c.ClearDueDate && c.AssignedTo == nil && !c.ClearAssignee
}

// BulkTaskChanges is the subset of task fields that can be changed in bulk.
type BulkTaskChanges struct {
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	AssignedTo    *uint64
	ClearAssignee bool
}

func (c BulkTaskChanges) IsEmpty() bool {
	return c.Status == nil && c.Priority == nil && c.AssignedTo == nil && !c.ClearAssignee
}

func (c BulkTaskChanges) taskChanges() TaskChanges {
	return TaskChanges{
		Status:        c.Status,
		Priority:      c.Priority,
		AssignedTo:    c.AssignedTo,
		ClearAssignee: c.ClearAssignee,
	}
}

// UserChanges is a partial user update. Nil fields are left unchanged.
type UserChanges struct {
	Username *string
	Email    *string
	FullName *string
}

func (c UserChanges) IsEmpty() bool {
	return c.Username == nil && c.Email == nil && c.FullName == nil
}

// TaskStats is a point-in-time snapshot of task counts.
type TaskStats struct {
	TotalTasks          int64 `gorm:"column:total_tasks" json:"total_tasks"`
	TodoTasks           int64 `gorm:"column:todo_tasks" json:"todo_tasks"`
	InProgressTasks     int64 `gorm:"column:in_progress_tasks" json:"in_progress_tasks"`
	DoneTasks           int64 `gorm:"column:done_tasks" json:"done_tasks"`
	HighPriorityTasks   int64 `gorm:"column:high_priority_tasks" json:"high_priority_tasks"`
	MediumPriorityTasks int64 `gorm:"column:medium_priority_tasks" json:"medium_priority_tasks"`
	LowPriorityTasks    int64 `gorm:"column:low_priority_tasks" json:"low_priority_tasks"`
	OverdueTasks        int64 `gorm:"column:overdue_tasks" json:"overdue_tasks"`
	UnassignedTasks     int64 `gorm:"column:unassigned_tasks" json:"unassigned_tasks"`
}
