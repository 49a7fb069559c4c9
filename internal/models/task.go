package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every status in board order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

var TaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo';check:chk_tasks_status,status IN ('todo','in-progress','done')" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium';check:chk_tasks_priority,priority IN ('low','medium','high')" json:"priority"`
	DueDate     *time.Time   `gorm:"type:date" json:"due_date"`
	AssignedTo  *uint64      `json:"assigned_to"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations. The foreign key has no cascade rule: deleting a user clears
	// assignments in the store before removing the row.
	Assignee *User `gorm:"foreignKey:AssignedTo" json:"-"`
}

// IsOverdue reports whether the task is past its due date relative to today
// (a UTC midnight) and not done.
func (t Task) IsOverdue(today time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(today) && t.Status != TaskStatusDone
}

// DateOnly truncates t to UTC midnight of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
