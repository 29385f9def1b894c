// Package config builds the process configuration from the environment once at
// startup. Values are passed by value into constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Lifecycle LifecycleConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// IsProduction reports whether the server runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis client used for entity locks. An empty URL
// disables distributed locking.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the outbox publisher. No brokers disables publishing.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
}

// LifecycleConfig tunes the transition engine and the outbox relay.
type LifecycleConfig struct {
	TxTimeout          time.Duration
	LockTTL            time.Duration
	LockWait           time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	p := parser{}
	cfg := Config{
		Server: Server{
			Addr:          p.str("ARTPRIV_ADDR", ":8080"),
			Environment:   p.str("ENVIRONMENT", "development"),
			LogLevel:      p.str("LOG_LEVEL", "info"),
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:     os.Getenv("JWT_ISSUER"),
			JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.integer("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:             p.str("KAFKA_TOPIC", "lifecycle.transitions"),
			ClientID:          p.str("KAFKA_CLIENT_ID", "artpriv"),
			Partitions:        int32(p.integer("KAFKA_PARTITIONS", 6)),
			ReplicationFactor: int16(p.integer("KAFKA_REPLICATION_FACTOR", 1)),
		},
		Lifecycle: LifecycleConfig{
			TxTimeout:          p.duration("LIFECYCLE_TX_TIMEOUT", 5*time.Second),
			LockTTL:            p.duration("LIFECYCLE_LOCK_TTL", 10*time.Second),
			LockWait:           p.duration("LIFECYCLE_LOCK_WAIT", 2*time.Second),
			OutboxPollInterval: p.duration("OUTBOX_POLL_INTERVAL", time.Second),
			OutboxBatchSize:    p.integer("OUTBOX_BATCH_SIZE", 100),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}

	if cfg.Server.JWTSigningKey == "" {
		if cfg.Server.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		// Use a default for development - should be overridden in production
		cfg.Server.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if cfg.Lifecycle.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	return cfg, nil
}

// parser records the first malformed variable.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
