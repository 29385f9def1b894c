package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/lock"
	"artpriv/internal/lifecycle/store"
	"artpriv/internal/platform/config"
	"artpriv/internal/platform/kafka/producer"
	"artpriv/internal/platform/outbox"
	"artpriv/internal/platform/redis"
	"artpriv/pkg/platform/httputil"
)

const readyTimeout = 2 * time.Second

// infra holds the external resources the process owns.
type infra struct {
	runner    store.TxRunner
	reader    store.Reader
	outbox    outbox.Store
	locker    engine.Locker
	publisher outbox.Publisher

	db       *sql.DB
	redis    *redis.Client
	producer *producer.Producer
	closers  []func()
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	ok := false
	defer func() {
		if !ok {
			in.Close()
		}
	}()

	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemory()
		in.runner, in.reader, in.outbox = mem, mem, mem
	} else {
		db, err := sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		in.db = db
		in.closers = append(in.closers, func() { _ = db.Close() })

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		in.runner = store.NewPostgresTx(db, cfg.Lifecycle.TxTimeout)
		in.reader, in.outbox = pg, pg
		log.Info("connected to postgres")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.closers = append(in.closers, func() { _ = rc.Close() })
		in.locker = lock.NewRedis(rc.Client,
			lock.WithTTL(cfg.Lifecycle.LockTTL),
			lock.WithWait(cfg.Lifecycle.LockWait),
		)
		log.Info("redis entity locks enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := producer.New(producer.Config{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
		}, log)
		if err != nil {
			return nil, err
		}
		in.producer = p
		in.closers = append(in.closers, p.Close)
		if err := p.EnsureTopic(ctx, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return nil, err
		}
		in.publisher = outbox.NewKafkaPublisher(p, cfg.Kafka.Topic)
	}

	ok = true
	return in, nil
}

// ready reports 503 while any configured dependency is unreachable.
func (in *infra) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	if in.db != nil {
		record("postgres", in.db.PingContext(ctx))
	}
	if in.redis != nil {
		record("redis", in.redis.Health(ctx))
	}
	if in.producer != nil {
		record("kafka", in.producer.Ping(ctx))
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, map[string]any{"ready": healthy, "checks": checks})
}

// Close releases resources in reverse order of acquisition.
func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}
