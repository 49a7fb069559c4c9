package dto

import (
	"time"

	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,alphanum,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	FullName string `json:"full_name" binding:"required,min=1,max=100"`
}

func (r *CreateUserRequest) Sanitize() {
	r.Username = Sanitize(r.Username)
	r.Email = Sanitize(r.Email)
	r.FullName = Sanitize(r.FullName)
}

func (r *CreateUserRequest) ToModel() *models.User {
	return &models.User{
		Username: r.Username,
		Email:    r.Email,
		FullName: r.FullName,
	}
}

// UpdateUserRequest is the body of PUT /api/users/:id
type UpdateUserRequest struct {
	Username Optional[string] `json:"username"`
	Email    Optional[string] `json:"email"`
	FullName Optional[string] `json:"full_name"`
}

func (r *UpdateUserRequest) Sanitize() {
	sanitizeOptional(&r.Username)
	sanitizeOptional(&r.Email)
	sanitizeOptional(&r.FullName)
}

func (r *UpdateUserRequest) Validate() error {
	if !r.Username.Set && !r.Email.Set && !r.FullName.Set {
		return apperrors.EmptyUpdate()
	}

	ve := &ValidationError{}
	checkOptional(ve, "username", r.Username, false, "alphanum,min=3,max=50")
	checkOptional(ve, "email", r.Email, false, "email,max=100")
	checkOptional(ve, "full_name", r.FullName, false, "min=1,max=100")
	return ve.orNil()
}

func (r *UpdateUserRequest) Changes() repository.UserChanges {
	return repository.UserChanges{
		Username: r.Username.Ptr(),
		Email:    r.Email.Ptr(),
		FullName: r.FullName.Ptr(),
	}
}

// UserQuery holds the list options of GET /api/users
type UserQuery struct {
	Search    string `form:"search" binding:"max=100"`
	SortBy    string `form:"sortBy,default=created_at"`
	SortOrder string `form:"sortOrder,default=desc"`
	Limit     int    `form:"limit,default=50" binding:"min=1,max=100"`
	Offset    int    `form:"offset,default=0" binding:"min=0"`
}

func (q *UserQuery) Sanitize() {
	q.Search = Sanitize(q.Search)
	q.SortBy = Sanitize(q.SortBy)
	q.SortOrder = Sanitize(q.SortOrder)
}

func (q *UserQuery) Filter() repository.UserFilter {
	return repository.UserFilter{
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
}

// UserSearchQuery holds the options of GET /api/users/search
type UserSearchQuery struct {
	Q      string `form:"q" binding:"required,max=100"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
}

func (q *UserSearchQuery) Sanitize() {
	q.Q = Sanitize(q.Q)
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}

// UserTasksDTO is the payload of GET /api/users/:id/tasks
type UserTasksDTO struct {
	User  UserDTO   `json:"user"`
	Tasks []TaskDTO `json:"tasks"`
}

// UserStatsDTO is the payload of GET /api/users/:id/stats
type UserStatsDTO struct {
	User       UserDTO               `json:"user"`
	Statistics *repository.TaskStats `json:"statistics"`
}

// AvailabilityDTO reports whether a username or email is free.
type AvailabilityDTO struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Available bool   `json:"available"`
}
