package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/authcore/identity-system/internal/api"
	"github.com/authcore/identity-system/internal/core/service"
	"github.com/authcore/identity-system/internal/infrastructure/config"
	identitymongo "github.com/authcore/identity-system/internal/infrastructure/db/mongo"
	identityredis "github.com/authcore/identity-system/internal/infrastructure/db/redis"
	"github.com/authcore/identity-system/internal/infrastructure/queue"
	"github.com/authcore/identity-system/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 5 * time.Minute
	otpUsedMaxAge   = 24 * time.Hour
)

// @title        Identity Service API
// @version      1.0
// @description  Multi-tenant identity and access management service.
// @BasePath     /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(logger.Options{Level: "info"})
	cfg := config.Load(log)
	log = logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	mongoClient, db, err := identitymongo.Connect(ctx, identitymongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := identityredis.Connect(ctx, identityredis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	dispatcher := queue.NewDispatcher(cfg.EventWorkers, queue.NewLogSink(log), log)
	dispatcher.Start(ctx)

	e := api.NewRouter(cfg, db, rdb, dispatcher, log)

	go runSweeps(ctx, db, rdb, dispatcher, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := identitymongo.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := identitymongo.NewRoleRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := identitymongo.NewPermissionRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return identitymongo.NewOtpRepository(db).EnsureIndexes(ctx)
}

// runSweeps removes expired sessions and stale OTPs in the background. Both
// sweeps are idempotent, so running them on every replica is fine.
func runSweeps(ctx context.Context, db *mongo.Database, rdb *redis.Client, dispatcher *queue.Dispatcher, log zerolog.Logger) {
	sessions := service.NewSessionService(identityredis.NewSessionRepository(rdb), dispatcher, log)
	otps := service.NewOtpService(identitymongo.NewOtpRepository(db), log)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := sessions.DeleteExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("session sweep failed")
			} else if n > 0 {
				log.Info().Int64("pruned", n).Msg("session sweep")
			}
			if n, err := otps.DeleteExpired(ctx); err != nil {
				log.Error().Err(err).Msg("otp sweep failed")
			} else if n > 0 {
				log.Info().Int64("deleted", n).Msg("otp sweep")
			}
			if _, err := otps.DeleteUsedOlderThan(ctx, otpUsedMaxAge); err != nil {
				log.Error().Err(err).Msg("used otp sweep failed")
			}
		}
	}
}
