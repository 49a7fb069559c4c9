package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/dto"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewHealthHandler(db *gorm.DB, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// Health reports whether the API can reach its database
func (h *HealthHandler) Health(c *gin.Context) {
	now := time.Now().UTC()

	if err := database.Ping(c.Request.Context(), h.db, healthPingTimeout); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": now,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "connected",
		"timestamp": now,
		"version":   constants.APIVersion,
	})
}

// Index lists the available endpoints
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OK(gin.H{
		"name":    "Task Tracker API",
		"version": constants.APIVersion,
		"endpoints": gin.H{
			"tasks": []string{
				"GET /api/tasks",
				"GET /api/tasks/search",
				"GET /api/tasks/stats",
				"GET /api/tasks/overdue",
				"GET /api/tasks/status/:status",
				"POST /api/tasks/suggest",
				"POST /api/tasks/bulk-update",
				"GET /api/tasks/:id",
				"POST /api/tasks",
				"PUT /api/tasks/:id",
				"PATCH /api/tasks/:id/assign",
				"PATCH /api/tasks/:id/status",
				"PATCH /api/tasks/:id/priority",
				"DELETE /api/tasks/:id",
			},
			"users": []string{
				"GET /api/users",
				"GET /api/users/search",
				"GET /api/users/check-username/:username",
				"GET /api/users/check-email/:email",
				"GET /api/users/:id",
				"GET /api/users/:id/tasks",
				"GET /api/users/:id/stats",
				"POST /api/users",
				"PUT /api/users/:id",
				"DELETE /api/users/:id",
			},
		},
	}))
}
