// Command server runs the pet calendar API together with its background
// generation workers.
//
// @title       Pet Calendar API
// @version     1.0
// @description Turns a pet photo into a twelve-month holiday calendar and sells it through hosted checkout.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/pet-calendar-backend/internal/artifacts"
	"github.com/tbourn/pet-calendar-backend/internal/config"
	httpapi "github.com/tbourn/pet-calendar-backend/internal/http"
	"github.com/tbourn/pet-calendar-backend/internal/jobs"
	"github.com/tbourn/pet-calendar-backend/internal/notify"
	"github.com/tbourn/pet-calendar-backend/internal/observability"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/services"
	"github.com/tbourn/pet-calendar-backend/internal/synth"
	"github.com/tbourn/pet-calendar-backend/internal/sysutil"
)

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	version := sysutil.Version()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Record store
	db, err := repo.Open(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Artifact store
	store, err := artifacts.New(ctx, cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	// Generation queue
	queue, err := newQueue(ctx, cfg.Queue)
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}

	// Collaborators that may be switched off
	deps := httpapi.Deps{Queue: queue, Log: log}
	if cfg.Stripe.Enabled() {
		deps.Payments = payments.NewStripe(cfg.Stripe, cfg.PublicBaseURL, nil)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; payments disabled")
	}
	if cfg.SMTP.Enabled() {
		deps.Notifier = notify.NewMailer(cfg.SMTP)
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set; every month will fail to generate")
	}

	wf := &services.Workflow{
		DB:    db,
		Synth: synth.New(cfg.OpenAI),
		Store: store,
		Log:   log.With().Str("component", "workflow").Logger(),
	}
	pool := jobs.NewPool(queue, wf.Handle, cfg.Queue.Workers, log)

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pool.Start(gctx)
		pool.Wait()
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("api_base", cfg.APIBasePath).
			Bool("payments", deps.Payments != nil).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		// workers observe gctx; closing the queue unblocks a pending Dequeue
		_ = queue.Close()
		return err
	})

	return g.Wait()
}

func newQueue(ctx context.Context, cfg config.QueueConfig) (jobs.Queue, error) {
	switch cfg.Backend {
	case config.QueueRedis:
		return jobs.NewRedisQueue(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKey)
	default:
		return jobs.NewMemoryQueue(cfg.Buffer), nil
	}
}
