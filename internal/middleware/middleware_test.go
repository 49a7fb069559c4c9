package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	apperrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeLimiter allows the first limit calls per key.
type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[key]++
	remaining := limit - f.counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return &ratelimit.Result{
		Allowed:   f.counts[key] <= limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(window),
		Limit:     limit,
	}, nil
}

type fakeTasks map[uint64]*models.Task

func (f fakeTasks) GetTask(_ context.Context, id uint64) (*models.Task, error) {
	if task, ok := f[id]; ok {
		return task, nil
	}
	return nil, apperrors.NotFound("task", id)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	r := gin.New()
	r.Use(RateLimit(limiter, RateLimitRule{Name: "api", Limit: 2, Window: time.Minute, Message: "slow down"}, zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodGet, "/ping")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("RateLimit-Limit"))
	}

	w := serve(r, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Contains(t, w.Body.String(), `"retry_after":`)
	assert.Contains(t, w.Body.String(), "slow down")
}

func TestWriteRateLimit_SkipsReads(t *testing.T) {
	limiter := &fakeLimiter{}
	r := gin.New()
	r.Use(WriteRateLimit(limiter, RateLimitRule{Name: "write", Limit: 1, Window: time.Minute}, zerolog.Nop()))
	r.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/items").Code)
	}
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/items").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/items").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis: connection refused")}
	r := gin.New()
	r.Use(RateLimit(limiter, RateLimitRule{Name: "api", Limit: 1, Window: time.Minute}, zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := serve(r, http.MethodGet, "/ping")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("RateLimit-Limit"))
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(constants.ContextKeyRequestID)) })

	w := serve(r, http.MethodGet, "/")
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Debug().Msg("inside handler")
		c.Status(http.StatusNotFound)
	})

	serve(r, http.MethodGet, "/missing")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"route":"/missing"`)
	assert.Contains(t, out, `"request_id":"`)
	assert.Contains(t, out, "inside handler")
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(zerolog.New(&buf)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestLoadTask(t *testing.T) {
	tasks := fakeTasks{7: {ID: 7, Title: "seven"}}
	r := gin.New()
	r.GET("/tasks/:id", LoadTask(tasks), func(c *gin.Context) {
		task, ok := GetTask(c)
		require.True(t, ok)
		c.String(http.StatusOK, task.Title)
	})

	w := serve(r, http.MethodGet, "/tasks/7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "seven", w.Body.String())

	w = serve(r, http.MethodGet, "/tasks/8")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/tasks/seven")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_ARGUMENT"`)
}

func TestGetUser_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	user, ok := GetUser(c)
	assert.False(t, ok)
	assert.Nil(t, user)
}
