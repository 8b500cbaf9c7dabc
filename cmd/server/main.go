package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/credentio/credential-system/internal/api"
	"github.com/credentio/credential-system/internal/api/handler"
	"github.com/credentio/credential-system/internal/api/token"
	"github.com/credentio/credential-system/internal/core/hasher"
	"github.com/credentio/credential-system/internal/core/ports"
	"github.com/credentio/credential-system/internal/core/service"
	"github.com/credentio/credential-system/internal/infrastructure/db/memory"
	mongostore "github.com/credentio/credential-system/internal/infrastructure/db/mongo"
	"github.com/credentio/credential-system/internal/infrastructure/db/postgres"
	redisstore "github.com/credentio/credential-system/internal/infrastructure/db/redis"
	"github.com/credentio/credential-system/internal/pkg/config"
	"github.com/credentio/credential-system/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, checks, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("initialising account store")
	}
	defer cleanup()

	var sessions ports.SessionStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to redis")
		}
		defer rdb.Close()
		sessions = redisstore.NewSessionStore(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, session revocation disabled")
	}

	svc := service.NewCredentialService(store, buildHasher(cfg), log,
		cfg.Auth.MaxFailedLogins, cfg.Auth.LockoutDuration)

	e := api.NewRouter(api.RouterDeps{
		Service:      svc,
		Issuer:       token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Sessions:     sessions,
		HealthChecks: checks,
		JWTSecret:    cfg.JWTSecret,
		Logger:       log,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().
			Str("addr", addr).
			Str("backend", cfg.StoreBackend).
			Str("hash_scheme", cfg.HashScheme).
			Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildStore wires the configured AccountStore backend along with its
// readiness checks and a cleanup function for connection teardown.
func buildStore(ctx context.Context, cfg *config.Config) (ports.AccountStore, map[string]handler.Pinger, func(), error) {
	checks := make(map[string]handler.Pinger)
	noop := func() {}

	switch cfg.StoreBackend {
	case "memory":
		return memory.NewStore(), checks, noop, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, noop, err
		}
		store := postgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		checks["postgres"] = pool.Ping
		return store, checks, pool.Close, nil

	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, noop, err
		}
		store := mongostore.NewStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, noop, err
		}
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		return store, checks, cleanup, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildHasher(cfg *config.Config) hasher.Hasher {
	if cfg.HashScheme == "bcrypt" {
		return hasher.NewBcrypt(bcrypt.DefaultCost)
	}
	return hasher.NewSHA256()
}
