package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

const statsSelect = `COUNT(*) AS total_tasks,
	COUNT(CASE WHEN tasks.status = ? THEN 1 END) AS todo_tasks,
	COUNT(CASE WHEN tasks.status = ? THEN 1 END) AS in_progress_tasks,
	COUNT(CASE WHEN tasks.status = ? THEN 1 END) AS done_tasks,
	COUNT(CASE WHEN tasks.priority = ? THEN 1 END) AS high_priority_tasks,
	COUNT(CASE WHEN tasks.priority = ? THEN 1 END) AS medium_priority_tasks,
	COUNT(CASE WHEN tasks.priority = ? THEN 1 END) AS low_priority_tasks,
	COUNT(CASE WHEN tasks.due_date < ? AND tasks.status <> ? THEN 1 END) AS overdue_tasks,
	COUNT(CASE WHEN tasks.assigned_to IS NULL THEN 1 END) AS unassigned_tasks`

// taskStats runs the aggregate over the tasks selected by db in a single
// statement, so every count comes from the same snapshot.
func taskStats(db *gorm.DB, today time.Time) (*TaskStats, error) {
	var stats TaskStats
	err := db.Select(statsSelect,
		models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone,
		models.TaskPriorityHigh, models.TaskPriorityMedium, models.TaskPriorityLow,
		today, models.TaskStatusDone,
	).Scan(&stats).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &stats, nil
}
