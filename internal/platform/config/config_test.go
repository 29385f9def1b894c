package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NotEmpty(t, cfg.Server.JWTSigningKey)
	assert.Empty(t, cfg.Database.URL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "lifecycle.transitions", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Second, cfg.Lifecycle.TxTimeout)
	assert.Equal(t, 100, cfg.Lifecycle.OutboxBatchSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ARTPRIV_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LIFECYCLE_LOCK_WAIT", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Lifecycle.LockWait)
	assert.Equal(t, 10, cfg.Lifecycle.OutboxBatchSize)
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("LIFECYCLE_TX_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "LIFECYCLE_TX_TIMEOUT")
	})

	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "JWT_SIGNING_KEY")
	})

	t.Run("non-positive batch size", func(t *testing.T) {
		t.Setenv("OUTBOX_BATCH_SIZE", "0")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
