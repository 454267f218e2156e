package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/cache"
	"github.com/kurlerprudent/kubo-backend-go/internal/config"
	"github.com/kurlerprudent/kubo-backend-go/internal/database"
	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/handlers"
	"github.com/kurlerprudent/kubo-backend-go/internal/jobs"
	"github.com/kurlerprudent/kubo-backend-go/internal/log"
	"github.com/kurlerprudent/kubo-backend-go/internal/repository"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
	"github.com/kurlerprudent/kubo-backend-go/internal/server"
	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	if err := database.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	codec := security.NewTokenCodec(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	accountRepo := repository.NewAccountRepository(dbPool)
	publisher := events.NewPublisher(redisClient, cfg.Events.Stream, logger)

	assignmentSvc := service.NewAssignmentService(accountRepo, publisher, logger)
	accountSvc := service.NewAccountService(accountRepo, assignmentSvc, publisher, logger)
	authSvc := service.NewAuthService(accountRepo, codec, assignmentSvc, publisher, logger)
	reportSvc := service.NewReportService(accountRepo, logger)

	handlerSet := handlers.NewHandlerSet(
		logger, cfg, dbPool, redisClient, codec,
		accountRepo, authSvc, accountSvc, assignmentSvc, reportSvc,
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(accountRepo, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
