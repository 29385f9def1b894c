package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	jwttoken "artpriv/internal/jwt_token"
	"artpriv/internal/lifecycle/bank"
	"artpriv/internal/lifecycle/donor"
	"artpriv/internal/lifecycle/engine"
	"artpriv/internal/lifecycle/handler"
	lifecyclemetrics "artpriv/internal/lifecycle/metrics"
	"artpriv/internal/lifecycle/quorum"
	"artpriv/internal/platform/config"
	"artpriv/internal/platform/httpserver"
	"artpriv/internal/platform/logger"
	"artpriv/internal/platform/metrics"
	"artpriv/internal/platform/outbox"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// run wires the process and blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	lifecycleMetrics := lifecyclemetrics.New(reg)

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(lifecycleMetrics),
		engine.WithTracer(otel.Tracer("artpriv/lifecycle")),
		engine.WithTxTimeout(cfg.Lifecycle.TxTimeout),
	}
	if deps.locker != nil {
		engineOpts = append(engineOpts, engine.WithLocker(deps.locker))
	}
	lifecycle := engine.New(deps.runner, deps.reader, engineOpts...)

	observer, err := quorum.NewObserver(deps.reader, lifecycle,
		quorum.WithLogger(log),
		quorum.WithMetrics(lifecycleMetrics),
	)
	if err != nil {
		return fmt.Errorf("build quorum observer: %w", err)
	}
	lifecycle.Subscribe(observer)

	banks := bank.New(lifecycle, deps.reader, bank.WithLogger(log))
	donors := donor.New(lifecycle, deps.reader, donor.WithLogger(log))

	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	api := handler.New(lifecycle, banks, donors, log, metrics.NewHTTP(reg), jwttoken.NewJWTServiceAdapter(tokens))

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/readyz", deps.ready)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	api.Register(router)

	srv := httpserver.New(cfg.Server.Addr, router, httpserver.WithErrorLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting artpriv", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if deps.publisher != nil {
		worker, err := outbox.NewWorker(deps.outbox, deps.publisher,
			outbox.WithLogger(log),
			outbox.WithMetrics(outbox.NewMetrics(reg)),
			outbox.WithInterval(cfg.Lifecycle.OutboxPollInterval),
			outbox.WithBatchSize(cfg.Lifecycle.OutboxBatchSize),
		)
		if err != nil {
			return fmt.Errorf("build outbox worker: %w", err)
		}
		g.Go(func() error {
			return worker.Run(gctx)
		})
	} else {
		log.Warn("kafka brokers not configured, outbox entries will not be relayed")
	}

	return g.Wait()
}
