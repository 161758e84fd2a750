package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("should apply development defaults", func(t *testing.T) {
		for _, key := range []string{"SERVER_HOST", "SERVER_PORT", "DATABASE_URL", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_URL"} {
			t.Setenv(key, "")
		}

		cfg := Load()

		assert.Equal(t, "0.0.0.0", cfg.ServerHost)
		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Empty(t, cfg.DatabaseURL)
		assert.Equal(t, "6379", cfg.RedisPort)
		assert.False(t, cfg.RedisEnabled())
	})

	t.Run("should read explicit values", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "127.0.0.1")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DATABASE_URL", "postgres://localhost/menus")
		t.Setenv("REDIS_HOST", "redis.internal")
		t.Setenv("REDIS_DB", "3")

		cfg := Load()

		assert.Equal(t, "127.0.0.1", cfg.ServerHost)
		assert.Equal(t, "9090", cfg.ServerPort)
		assert.Equal(t, "postgres://localhost/menus", cfg.DatabaseURL)
		assert.Equal(t, 3, cfg.RedisDB)
		assert.True(t, cfg.RedisEnabled())
	})

	t.Run("REDIS_URL alone enables redis", func(t *testing.T) {
		t.Setenv("REDIS_HOST", "")
		t.Setenv("REDIS_URL", "redis://localhost:6379")

		cfg := Load()
		assert.True(t, cfg.RedisEnabled())
	})
}
