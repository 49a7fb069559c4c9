package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// UserService handles user business logic
type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	log      zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, taskRepo repository.TaskRepository, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		log:      log.With().Str("service", "users").Logger(),
	}
}

// UserTasksFilter narrows the tasks assigned to a user
type UserTasksFilter struct {
	Status   string
	Priority string
	Limit    int
	Offset   int
}

func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SearchUsers returns users ranked by the field the term matched
func (s *UserService) SearchUsers(ctx context.Context, term string, limit, offset int) ([]models.User, error) {
	users, err := s.userRepo.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Uint64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, user *models.User, changes repository.UserChanges) (*models.User, error) {
	if err := s.userRepo.Update(ctx, user, changes); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user after unassigning their tasks
func (s *UserService) DeleteUser(ctx context.Context, userID uint64) error {
	unassigned, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.log.Info().
		Uint64("user_id", userID).
		Int64("unassigned_tasks", unassigned).
		Msg("user deleted")
	return nil
}

// UserTasks returns one page of the tasks assigned to a user
func (s *UserService) UserTasks(ctx context.Context, user *models.User, filter UserTasksFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		AssignedTo: repository.AssigneeFilter{UserID: user.ID},
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user tasks: %w", err)
	}
	return tasks, total, nil
}

// UserStats returns task counts for the tasks assigned to a user
func (s *UserService) UserStats(ctx context.Context, userID uint64) (*repository.TaskStats, error) {
	stats, err := s.userRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return stats, nil
}

// UsernameAvailable reports whether no user holds username
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	return available(err)
}

// EmailAvailable reports whether no user holds email
func (s *UserService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.userRepo.FindByEmail(ctx, email)
	return available(err)
}

func available(lookupErr error) (bool, error) {
	switch {
	case lookupErr == nil:
		return false, nil
	case apperrors.IsKind(lookupErr, apperrors.KindNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("failed to check availability: %w", lookupErr)
	}
}
