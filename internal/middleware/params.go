package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskFinder loads a task by ID
type TaskFinder interface {
	GetTask(ctx context.Context, taskID uint64) (*models.Task, error)
}

// UserFinder loads a user by ID
type UserFinder interface {
	GetUser(ctx context.Context, userID uint64) (*models.User, error)
}

// ParseID reads a positive integer path parameter. Anything else is an
// InvalidArgument error.
func ParseID(c *gin.Context, param string) (uint64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidArgument(param, "invalid "+param+": must be a positive integer")
	}
	return id, nil
}

// LoadTask loads the task named by the :id parameter into the context
func LoadTask(tasks TaskFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := ParseID(c, "id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		task, err := tasks.GetTask(c.Request.Context(), taskID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// LoadUser loads the user named by the :id parameter into the context
func LoadUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ParseID(c, "id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetTask gets the task loaded by LoadTask
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}

// GetUser gets the user loaded by LoadUser
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
