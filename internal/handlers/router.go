package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/config"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/ratelimit"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// RouterDeps holds everything the HTTP layer needs. Limiter may be nil, in
// which case requests are not rate limited.
type RouterDeps struct {
	Log       zerolog.Logger
	DB        *gorm.DB
	Tasks     *services.TaskService
	Users     *services.UserService
	Limiter   ratelimit.Limiter
	RateLimit config.RateLimitConfig
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
	)
	r.NoRoute(apperrors.RouteNotFound)

	healthHandler := NewHealthHandler(deps.DB, deps.Log)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Log)
	userHandler := NewUserHandler(deps.Users)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	if deps.Limiter != nil {
		api.Use(
			middleware.RateLimit(deps.Limiter, middleware.RateLimitRule{
				Name:    "api",
				Limit:   deps.RateLimit.APIMax,
				Window:  deps.RateLimit.APIWindow,
				Message: "Too many requests from this IP, please try again later.",
			}, deps.Log),
			middleware.WriteRateLimit(deps.Limiter, middleware.RateLimitRule{
				Name:    "write",
				Limit:   deps.RateLimit.WriteMax,
				Window:  deps.RateLimit.WriteWindow,
				Message: "Too many write operations from this IP, please try again later.",
			}, deps.Log),
		)
	}

	api.GET("", healthHandler.Index)

	loadTask := middleware.LoadTask(deps.Tasks)
	tasks := api.Group("/tasks")
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/search", taskHandler.SearchTasks)
		tasks.GET("/stats", taskHandler.Stats)
		tasks.GET("/overdue", taskHandler.OverdueTasks)
		tasks.GET("/status/:status", taskHandler.TasksByStatus)
		tasks.POST("/suggest", taskHandler.SuggestTasks)
		tasks.POST("/bulk-update", taskHandler.BulkUpdate)
		tasks.GET("/:id", loadTask, taskHandler.GetTask)
		tasks.PUT("/:id", loadTask, taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
		tasks.PATCH("/:id/assign", loadTask, taskHandler.AssignTask)
		tasks.PATCH("/:id/status", loadTask, taskHandler.ChangeStatus)
		tasks.PATCH("/:id/priority", loadTask, taskHandler.ChangePriority)
	}

	loadUser := middleware.LoadUser(deps.Users)
	users := api.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/search", userHandler.SearchUsers)
		users.GET("/check-username/:username", userHandler.CheckUsername)
		users.GET("/check-email/:email", userHandler.CheckEmail)
		users.GET("/:id", loadUser, userHandler.GetUser)
		users.PUT("/:id", loadUser, userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.GET("/:id/tasks", loadUser, userHandler.UserTasks)
		users.GET("/:id/stats", loadUser, userHandler.UserStats)
	}

	return r
}
