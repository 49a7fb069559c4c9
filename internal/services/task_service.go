package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not suggest any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be built from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	aiService *AIService
	log       zerolog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. aiService may be nil, in which
// case suggestions are unavailable.
func NewTaskService(taskRepo repository.TaskRepository, aiService *AIService, log zerolog.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		aiService: aiService,
		log:       log.With().Str("service", "tasks").Logger(),
		now:       time.Now,
	}
}

// Now is the clock used for due-date checks.
func (s *TaskService) Now() time.Time {
	return s.now()
}

// ListTasks returns one page of tasks and the total number of matches
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// TasksByStatus returns every task with status, newest first
func (s *TaskService) TasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{Status: string(status)})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) OverdueTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListOverdue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.Info().Uint64("task_id", task.ID).Msg("task created")
	return task, nil
}

// UpdateTask applies a partial update and returns the stored task
func (s *TaskService) UpdateTask(ctx context.Context, task *models.Task, changes repository.TaskChanges) (*models.Task, error) {
	if err := s.taskRepo.Update(ctx, task, changes); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// ChangeStatus sets the status of a task
func (s *TaskService) ChangeStatus(ctx context.Context, task *models.Task, status models.TaskStatus) (*models.Task, error) {
	return s.UpdateTask(ctx, task, repository.TaskChanges{Status: &status})
}

// ChangePriority sets the priority of a task
func (s *TaskService) ChangePriority(ctx context.Context, task *models.Task, priority models.TaskPriority) (*models.Task, error) {
	return s.UpdateTask(ctx, task, repository.TaskChanges{Priority: &priority})
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) error {
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.log.Info().Uint64("task_id", taskID).Msg("task deleted")
	return nil
}

// BulkUpdate applies the same changes to every listed task, all or nothing
func (s *TaskService) BulkUpdate(ctx context.Context, taskIDs []uint64, changes repository.BulkTaskChanges) ([]models.Task, error) {
	tasks, err := s.taskRepo.BulkUpdate(ctx, taskIDs, changes)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk update tasks: %w", err)
	}

	s.log.Info().Int("count", len(tasks)).Msg("tasks bulk updated")
	return tasks, nil
}

// Stats returns counts across all tasks
func (s *TaskService) Stats(ctx context.Context) (*repository.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}
	return stats, nil
}

// SuggestTasks uses AI to draft tasks from free text. Nothing is stored.
func (s *TaskService) SuggestTasks(ctx context.Context, text string) ([]SuggestedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	now := s.now()
	suggestions, err := s.aiService.SuggestTasks(ctx, text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(suggestions) > constants.MaxAIGeneratedTasks {
		suggestions = suggestions[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, suggestion := range suggestions {
		suggestion.Title = strings.TrimSpace(suggestion.Title)
		if suggestion.Title == "" {
			continue
		}
		if runes := []rune(suggestion.Title); len(runes) > constants.MaxTitleLength {
			suggestion.Title = string(runes[:constants.MaxTitleLength])
		}

		if !models.TaskPriority(suggestion.Priority).Valid() {
			suggestion.Priority = string(models.TaskPriorityMedium)
		}

		// Suggested due dates in the past are dropped rather than rejected.
		if suggestion.DueDate != nil && !suggestion.DueDate.After(now) {
			suggestion.DueDate = nil
		}

		valid = append(valid, suggestion)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	s.log.Debug().Int("count", len(valid)).Msg("tasks suggested")
	return valid, nil
}
