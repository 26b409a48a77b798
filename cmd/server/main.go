package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"loan-approval-service/internal/api"
	"loan-approval-service/internal/cache"
	"loan-approval-service/internal/config"
	"loan-approval-service/internal/consumer"
	"loan-approval-service/internal/database"
	"loan-approval-service/internal/model"
	"loan-approval-service/internal/repository"
	"loan-approval-service/internal/service"
	"loan-approval-service/internal/session"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func main() {
	cfg := config.MustLoad()
	logger.Info().Str("config", cfg.String()).Msg("Configuration loaded")

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	pipeline, err := model.Load(cfg.Model.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Model.Path).Msg("Failed to load prediction pipeline, run cmd/train first")
	}
	logger.Info().Str("path", cfg.Model.Path).Time("trained_at", pipeline.TrainedAt).Int("trees", len(pipeline.Forest.Trees)).Msg("Prediction pipeline loaded")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var store cache.Store
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisStore(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		store = rdb
	} else {
		mem := cache.NewMemoryStore()
		mem.StartCleanup(ctx, time.Minute)
		store = mem
		logger.Warn().Msg("REDIS_ADDR not set, keeping sessions in memory")
	}

	var events service.EventWriter
	if w := config.NewKafkaWriter(cfg.Kafka); w != nil {
		defer w.Close()
		events = w
	}
	if r := config.NewKafkaReader(cfg.Kafka); r != nil {
		defer r.Close()
		go consumer.NewConsumer(r, store).Run(ctx)
		logger.Info().Str("group_id", cfg.Kafka.GroupID).Msg("Decision consumer started")
	}

	userService := service.NewUserService(repository.NewUserRepository(db))
	loanService := service.NewLoanService(repository.NewLoanRepository(db), pipeline, store, events, cfg.StatsCacheTTL)

	e, err := api.NewServer(api.Deps{
		Users:     userService,
		Loans:     loanService,
		Sessions:  session.NewManager(store, cfg.Session),
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build server")
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("Server started")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to gracefully shutdown server")
	}
	logger.Info().Msg("Server stopped")
}
