package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/task-tracker-api/internal/database"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	store
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB, opts ...Option) TaskRepository {
	return newGormTaskRepository(db, opts...)
}

func newGormTaskRepository(db *gorm.DB, opts ...Option) *GormTaskRepository {
	return &GormTaskRepository{store: newStore(db, opts)}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if !task.Status.Valid() {
		return apperrors.ConstraintViolation(fieldStatus, string(task.Status))
	}
	if !task.Priority.Valid() {
		return apperrors.ConstraintViolation(fieldPriority, string(task.Priority))
	}
	if task.DueDate != nil {
		due := models.DateOnly(*task.DueDate)
		task.DueDate = &due
	}
	task.Assignee = nil

	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if task.AssignedTo != nil {
			if err := ensureUserExists(tx, *task.AssignedTo); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		created, err := findTask(tx, task.ID)
		if err != nil {
			return err
		}
		*task = *created
		return nil
	})
	return translateError(err)
}

// FindByID finds a task by ID with its assignee loaded
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	task, err := findTask(db, id)
	if err != nil {
		return nil, translateError(err)
	}
	return task, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	base := func() *gorm.DB {
		return taskFilterScope(filter)(db.Model(&models.Task{}))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	tasks := []models.Task{}
	err := base().
		Scopes(
			database.Sort("tasks", TaskSortColumns, DefaultSortColumn, filter.SortBy, filter.SortOrder),
			database.Paginate(filter.Limit, filter.Offset),
		).
		Preload("Assignee").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	return tasks, total, nil
}

// ListOverdue retrieves tasks due before today that are not done
func (r *GormTaskRepository) ListOverdue(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.
		Where("tasks.due_date < ? AND tasks.status <> ?", r.today(), models.TaskStatusDone).
		Order("tasks.due_date ASC").
		Order("tasks.id ASC").
		Preload("Assignee").
		Find(&tasks).Error
	if err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// Update applies the supplied changes and refreshes task from the stored row.
// Fields absent from changes keep their stored values.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, changes TaskChanges) error {
	if changes.IsEmpty() {
		return apperrors.EmptyUpdate()
	}

	values, err := taskUpdateValues(changes)
	if err != nil {
		return err
	}

	db, cancel := r.session(ctx)
	defer cancel()

	err = db.Transaction(func(tx *gorm.DB) error {
		if changes.AssignedTo != nil && !changes.ClearAssignee {
			if err := ensureUserExists(tx, *changes.AssignedTo); err != nil {
				return err
			}
		}

		result := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("task", task.ID)
		}

		updated, err := findTask(tx, task.ID)
		if err != nil {
			return err
		}
		*task = *updated
		return nil
	})
	return translateError(err)
}

// Delete removes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	db, cancel := r.session(ctx)
	defer cancel()

	result := db.Delete(&models.Task{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("task", id)
	}
	return nil
}

// BulkUpdate applies changes to every task in ids within one transaction.
// If any id does not exist nothing is changed.
func (r *GormTaskRepository) BulkUpdate(ctx context.Context, ids []uint64, changes BulkTaskChanges) ([]models.Task, error) {
	ids = uniqueUint64(ids)
	if len(ids) == 0 {
		return nil, apperrors.EmptyInput("task ids are required")
	}
	if changes.IsEmpty() {
		return nil, apperrors.EmptyInput("update data is required")
	}

	values, err := taskUpdateValues(changes.taskChanges())
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	db, cancel := r.session(ctx)
	defer cancel()

	err = db.Transaction(func(tx *gorm.DB) error {
		if changes.AssignedTo != nil && !changes.ClearAssignee {
			if err := ensureUserExists(tx, *changes.AssignedTo); err != nil {
				return err
			}
		}

		result := tx.Model(&models.Task{}).Where("id IN ?", ids).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return missingTask(tx, ids, result.RowsAffected)
		}

		return tx.Preload("Assignee").
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&tasks).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// Stats computes task counts across all tasks
func (r *GormTaskRepository) Stats(ctx context.Context) (*TaskStats, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	return taskStats(db.Model(&models.Task{}), r.today())
}

func (r *GormTaskRepository) today() time.Time {
	return models.DateOnly(r.now().UTC())
}

// findTask loads a fresh copy of the task and its assignee.
func findTask(db *gorm.DB, id uint64) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("Assignee").First(&task, id).Error; err != nil {
		return nil, notFoundOr(err, "task", id)
	}
	return &task, nil
}

func taskFilterScope(filter TaskFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("tasks.status = ?", filter.Status)
		}
		if filter.Priority != "" {
			db = db.Where("tasks.priority = ?", filter.Priority)
		}

		switch {
		case filter.AssignedTo.Unassigned:
			db = db.Where("tasks.assigned_to IS NULL")
		case filter.AssignedTo.UserID != 0:
			db = db.Where("tasks.assigned_to = ?", filter.AssignedTo.UserID)
		}

		return database.Search(filter.Search, "tasks.title", "tasks.description")(db)
	}
}

// taskUpdateValues converts changes to a column map, validating enum values.
func taskUpdateValues(changes TaskChanges) (map[string]interface{}, error) {
	values := map[string]interface{}{}

	if changes.Title != nil {
		values["title"] = *changes.Title
	}
	if changes.Description != nil {
		values["description"] = *changes.Description
	}
	if changes.Status != nil {
		if !changes.Status.Valid() {
			return nil, apperrors.ConstraintViolation(fieldStatus, string(*changes.Status))
		}
		values["status"] = *changes.Status
	}
	if changes.Priority != nil {
		if !changes.Priority.Valid() {
			return nil, apperrors.ConstraintViolation(fieldPriority, string(*changes.Priority))
		}
		values["priority"] = *changes.Priority
	}

	switch {
	case changes.ClearDueDate:
		values["due_date"] = nil
	case changes.DueDate != nil:
		values["due_date"] = models.DateOnly(*changes.DueDate)
	}

	switch {
	case changes.ClearAssignee:
		values["assigned_to"] = nil
	case changes.AssignedTo != nil:
		values["assigned_to"] = *changes.AssignedTo
	}

	return values, nil
}

func ensureUserExists(tx *gorm.DB, id uint64) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return withCause(errAssigneeMissing, nil)
	}
	return nil
}

// missingTask reports the first id in ids without a stored task. When every
// task exists the shortfall is not a missing row and the error is left
// unclassified.
func missingTask(tx *gorm.DB, ids []uint64, affected int64) error {
	var found []uint64
	if err := tx.Model(&models.Task{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}

	present := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return apperrors.NotFound("task", id)
		}
	}
	return fmt.Errorf("bulk update affected %d of %d tasks", affected, len(ids))
}

func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
