package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/fill-blank-service/internal/config"
)

func TestNewRedisClient_InvalidURL(t *testing.T) {
	client, err := NewRedisClient(context.Background(), &config.Config{RedisURL: "http://localhost:6379"})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "invalid redis url")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis://127.0.0.1:1", RedisTimeout: 200 * time.Millisecond}

	start := time.Now()
	client, err := NewRedisClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "redis connection failed")
	assert.Less(t, time.Since(start), 5*time.Second)
}
