package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-recovery-api/internal/config"
	"github.com/go-recovery-api/internal/infrastructure/dynamo"
	"github.com/go-recovery-api/internal/infrastructure/redisstore"
	"github.com/go-recovery-api/internal/pkg/token"
	transporthttp "github.com/go-recovery-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	codec, err := token.NewCodec(cfg.Recovery.SecretKey)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	ctx := context.Background()
	deps := &transporthttp.Deps{Codec: codec}
	var closers []func() error

	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := redisstore.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		closers = append(closers, rdb.Close)
		deps.RecoveryStore = redisstore.NewUserStore(rdb, cfg.RedisKeyPrefix)
		deps.Ready = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		dynamoClient, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamodb: %v", err)
		}
		// Creates the users table if it doesn't exist.
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
		users := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
		deps.RecoveryStore = users
		deps.Ready = users.Ping
	}

	router, stopRouter := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	stopRouter()
	for _, c := range closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
	log.Println("Server stopped")
}
