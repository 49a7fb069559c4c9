package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/task-tracker-api/internal/config"
)

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		resetAt time.Time
		want    int
	}{
		{name: "exact seconds", resetAt: now.Add(90 * time.Second), want: 90},
		{name: "rounds up", resetAt: now.Add(1500 * time.Millisecond), want: 2},
		{name: "already reset", resetAt: now.Add(-time.Second), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{ResetAt: tt.resetAt}
			assert.Equal(t, tt.want, r.RetryAfter(now))
		})
	}
}

func TestRedisLimiter_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	limiter := NewRedisLimiter(client, "test:")

	_, err := limiter.Allow(context.Background(), "api:127.0.0.1", 10, time.Minute)
	assert.ErrorContains(t, err, "redis script error")
}

func TestNewRedisClient_FailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
