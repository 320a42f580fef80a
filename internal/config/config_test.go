package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CIRS_JWT_SECRET", "secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "cirs_", cfg.Store.Prefix)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "secret", cfg.ToJWTConfig().Secret)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	yml := `
store:
  driver: redis
  redis:
    url: redis://cache:6379/0
jwt:
  secret: from-file
  ttl: 2h
outbox:
  poll_interval: 250ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600))

	t.Setenv("CIRS_SERVER_PORT", "9090")
	t.Setenv("CIRS_SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CIRS_BROKER_DRIVER", "rabbitmq")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.ToWorkerConfig().PollInterval)

	store := cfg.ToStoreConfig()
	assert.Equal(t, "redis", store.Driver)
	assert.Equal(t, "redis://cache:6379/0", store.Redis.URL)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.ToCORSConfig().AllowOrigins)
	assert.Equal(t, "cirs.events", cfg.Broker.ToRabbitMQConfig().Exchange)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("CIRS_JWT_SECRET", "")
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "Secret is required")
	})

	t.Run("unknown store driver", func(t *testing.T) {
		t.Setenv("CIRS_JWT_SECRET", "secret")
		t.Setenv("CIRS_STORE_DRIVER", "sqlite")
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "Driver must be one of: memory, redis, postgres")
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("CIRS_JWT_SECRET", "secret")
		t.Setenv("CIRS_STORE_DRIVER", "postgres")
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "dsn")
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		t.Setenv("CIRS_JWT_SECRET", "secret")
		t.Setenv("CIRS_SECURITY_BCRYPT_COST", "2")
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "BcryptCost must be at least 4")
	})
}
