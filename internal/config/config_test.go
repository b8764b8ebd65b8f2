package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, BackendDynamo, cfg.StoreBackend)
	assert.Equal(t, "users", cfg.DynamoTables.Users)
	assert.Equal(t, 15*time.Minute, cfg.Recovery.ResetWindow)
	assert.False(t, cfg.Recovery.ConsumeCode)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("FORGOT_EXPIRATION_MINUTES", "30")
	t.Setenv("RECOVERY_CONSUME_CODE", "true")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg := Load()

	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.Recovery.ResetWindow)
	assert.True(t, cfg.Recovery.ConsumeCode)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 0.5, cfg.RateLimit.RPS)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("FORGOT_EXPIRATION_MINUTES", "soon")
	t.Setenv("RECOVERY_CONSUME_CODE", "maybe")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Recovery.ResetWindow)
	assert.False(t, cfg.Recovery.ConsumeCode)
}

func TestValidate_MissingSecret(t *testing.T) {
	cfg := Load()
	cfg.Recovery.SecretKey = ""
	assert.ErrorContains(t, cfg.Validate(), "SECRET_KEY")
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Load()
	cfg.Recovery.SecretKey = "x"
	cfg.StoreBackend = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "mongo")
}

func TestValidate_NonPositiveWindow(t *testing.T) {
	cfg := Load()
	cfg.Recovery.SecretKey = "x"
	cfg.Recovery.ResetWindow = 0
	assert.ErrorContains(t, cfg.Validate(), "FORGOT_EXPIRATION_MINUTES")
}
