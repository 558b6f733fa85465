package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"

	"github.com/Ayooluwa21/tikker-backend/internal/adapters/crdb"
	redisadapter "github.com/Ayooluwa21/tikker-backend/internal/adapters/redis"
	"github.com/Ayooluwa21/tikker-backend/internal/auth"
	"github.com/Ayooluwa21/tikker-backend/internal/booking"
	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/config"
	"github.com/Ayooluwa21/tikker-backend/internal/events"
	httphandler "github.com/Ayooluwa21/tikker-backend/internal/http"
	"github.com/Ayooluwa21/tikker-backend/internal/idempotency"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
	"github.com/Ayooluwa21/tikker-backend/internal/rateLimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	if err := crdb.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cache := redisadapter.NewCache(redisClient, cfg.EventCacheTTL)
	idemp := idempotency.New(redisadapter.NewIdempotency(redisClient), cfg.IdempTTL)
	rl := rateLimit.New(cache)

	sysClock := clock.NewSystem()
	bookingSvc := booking.NewService(repo, sysClock)
	eventsSvc := events.NewService(repo, sysClock)
	authSvc := auth.NewService(repo, sysClock, cfg.JWTSecret)

	handlers := httphandler.NewHandlers(logger, bookingSvc, eventsSvc, authSvc, cache, idemp)
	r := httphandler.SetupRouter(handlers, logger, authSvc, rl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("api listening on :", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
