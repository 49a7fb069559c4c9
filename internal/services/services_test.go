package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// ServiceTestSuite exercises the services over SQLite-backed repositories
type ServiceTestSuite struct {
	suite.Suite
	db    *gorm.DB
	ctx   context.Context
	tasks *TaskService
	users *UserService
}

// SetupTest runs before each test
func (suite *ServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = database.Open(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(suite.T().TempDir(), "services.db"),
		MaxOpenConns: 4,
		LogLevel:     "silent",
	}, zerolog.Nop())
	suite.Require().NoError(err)
	suite.Require().NoError(database.Migrate(suite.db, zerolog.Nop()))

	taskRepo := repository.NewTaskRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)

	suite.ctx = context.Background()
	suite.tasks = NewTaskService(taskRepo, nil, zerolog.Nop())
	suite.users = NewUserService(userRepo, taskRepo, zerolog.Nop())
}

// TearDownTest runs after each test
func (suite *ServiceTestSuite) TearDownTest() {
	suite.Require().NoError(database.Close(suite.db))
}

func (suite *ServiceTestSuite) createUser(username string) *models.User {
	user, err := suite.users.CreateUser(suite.ctx, &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
	})
	suite.Require().NoError(err)
	return user
}

func (suite *ServiceTestSuite) TestChangeStatusAndPriority() {
	task, err := suite.tasks.CreateTask(suite.ctx, &models.Task{Title: "Ship"})
	suite.Require().NoError(err)

	task, err = suite.tasks.ChangeStatus(suite.ctx, task, models.TaskStatusInProgress)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, task.Status)

	task, err = suite.tasks.ChangePriority(suite.ctx, task, models.TaskPriorityLow)
	suite.Require().NoError(err)
	suite.Equal(models.TaskPriorityLow, task.Priority)
	suite.Equal(models.TaskStatusInProgress, task.Status)
}

func (suite *ServiceTestSuite) TestTasksByStatus() {
	for _, status := range []models.TaskStatus{models.TaskStatusDone, models.TaskStatusTodo, models.TaskStatusDone} {
		_, err := suite.tasks.CreateTask(suite.ctx, &models.Task{Title: string(status), Status: status})
		suite.Require().NoError(err)
	}

	tasks, err := suite.tasks.TasksByStatus(suite.ctx, models.TaskStatusDone)
	suite.Require().NoError(err)
	suite.Len(tasks, 2)
}

func (suite *ServiceTestSuite) TestErrorsKeepTheirKind() {
	_, err := suite.tasks.GetTask(suite.ctx, 404)
	suite.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
	suite.Contains(err.Error(), "failed to get task")
}

func (suite *ServiceTestSuite) TestUserTasksAndStats() {
	alice := suite.createUser("alice")
	for _, priority := range []models.TaskPriority{models.TaskPriorityHigh, models.TaskPriorityLow} {
		_, err := suite.tasks.CreateTask(suite.ctx, &models.Task{Title: "t", Priority: priority, AssignedTo: &alice.ID})
		suite.Require().NoError(err)
	}
	_, err := suite.tasks.CreateTask(suite.ctx, &models.Task{Title: "free"})
	suite.Require().NoError(err)

	tasks, total, err := suite.users.UserTasks(suite.ctx, alice, UserTasksFilter{Priority: "high", Limit: 50})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Len(tasks, 1)

	stats, err := suite.users.UserStats(suite.ctx, alice.ID)
	suite.Require().NoError(err)
	suite.EqualValues(2, stats.TotalTasks)
}

func (suite *ServiceTestSuite) TestAvailability() {
	suite.createUser("alice")

	ok, err := suite.users.UsernameAvailable(suite.ctx, "alice")
	suite.Require().NoError(err)
	suite.False(ok)

	ok, err = suite.users.UsernameAvailable(suite.ctx, "bob")
	suite.Require().NoError(err)
	suite.True(ok)

	ok, err = suite.users.EmailAvailable(suite.ctx, "alice@example.com")
	suite.Require().NoError(err)
	suite.False(ok)
}

func (suite *ServiceTestSuite) TestDeleteUser() {
	alice := suite.createUser("alice")
	task, err := suite.tasks.CreateTask(suite.ctx, &models.Task{Title: "t", AssignedTo: &alice.ID})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.users.DeleteUser(suite.ctx, alice.ID))

	stored, err := suite.tasks.GetTask(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.AssignedTo)

	err = suite.users.DeleteUser(suite.ctx, alice.ID)
	suite.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func (suite *ServiceTestSuite) TestSuggestTasks_NotConfigured() {
	_, err := suite.tasks.SuggestTasks(suite.ctx, "anything")
	suite.ErrorIs(err, ErrAIServiceNotConfigured)
}

func (suite *ServiceTestSuite) TestSuggestTasks_CleansSuggestions() {
	ai := newFakeOpenAI(suite.T(), `[
		{"title":"  ","priority":"high"},
		{"title":"Renew passport","priority":"urgent","due_date":"2020-01-01T00:00:00Z"},
		{"title":"Plan trip","priority":"low","due_date":"2030-01-01T00:00:00Z"}
	]`)
	svc := NewTaskService(repository.NewTaskRepository(suite.db), ai, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC) }

	tasks, err := svc.SuggestTasks(suite.ctx, "renew passport, plan trip")
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)

	suite.Equal("Renew passport", tasks[0].Title)
	suite.Equal("medium", tasks[0].Priority)
	suite.Nil(tasks[0].DueDate)

	suite.Equal("low", tasks[1].Priority)
	suite.NotNil(tasks[1].DueDate)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
