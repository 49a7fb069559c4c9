package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns one page of users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q dto.UserQuery
	if !bindQuery(c, &q) {
		return
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), q.Filter())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToUserDTOs(users), dto.ListMeta{
		Count:      len(users),
		Total:      &total,
		Limit:      q.Limit,
		Offset:     q.Offset,
		SearchTerm: q.Search,
		Sorting:    dto.NewListSorting(repository.UserSortColumns, q.SortBy, q.SortOrder),
	}))
}

// SearchUsers ranks users by whether the term matched username, full name or email
func (h *UserHandler) SearchUsers(c *gin.Context) {
	var q dto.UserSearchQuery
	if !bindQuery(c, &q) {
		return
	}

	users, err := h.users.SearchUsers(c.Request.Context(), q.Q, q.Limit, q.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMeta(dto.ToUserDTOs(users), dto.ListMeta{
		Count:      len(users),
		Limit:      q.Limit,
		Offset:     q.Offset,
		SearchTerm: q.Q,
	}))
}

func (h *UserHandler) CheckUsername(c *gin.Context) {
	username := dto.Sanitize(c.Param("username"))

	available, err := h.users.UsernameAvailable(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.AvailabilityDTO{Username: username, Available: available}))
}

func (h *UserHandler) CheckEmail(c *gin.Context) {
	email := dto.Sanitize(c.Param("email"))

	available, err := h.users.EmailAvailable(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.AvailabilityDTO{Email: email, Available: available}))
}

// GetUser returns the user loaded by middleware.LoadUser
func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.InternalError(c, "User not found in context")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToUserDTO(*user)))
}

// UserTasks returns one page of the tasks assigned to the loaded user
func (h *UserHandler) UserTasks(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.InternalError(c, "User not found in context")
		return
	}

	var q dto.UserTasksQuery
	if !bindQuery(c, &q) {
		return
	}

	tasks, total, err := h.users.UserTasks(c.Request.Context(), user, services.UserTasksFilter{
		Status:   q.Status,
		Priority: q.Priority,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMeta(
		dto.UserTasksDTO{User: dto.ToUserDTO(*user), Tasks: dto.ToTaskDTOs(tasks)},
		dto.ListMeta{
			Count:   len(tasks),
			Total:   &total,
			Limit:   q.Limit,
			Offset:  q.Offset,
			Filters: &dto.ListFilters{Status: q.Status, Priority: q.Priority},
		},
	))
}

func (h *UserHandler) UserStats(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.InternalError(c, "User not found in context")
		return
	}

	stats, err := h.users.UserStats(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.UserStatsDTO{User: dto.ToUserDTO(*user), Statistics: stats}))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OKWithMessage(dto.ToUserDTO(*user), "User created successfully"))
}

// UpdateUser applies the fields present in the body to the loaded user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apperrors.InternalError(c, "User not found in context")
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondInvalid(c, err)
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), user, req.Changes())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage(dto.ToUserDTO(*user), "User updated successfully"))
}

// DeleteUser removes a user and unassigns their tasks
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := middleware.ParseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
