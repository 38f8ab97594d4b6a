package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vitalsync/internal/config"
	"vitalsync/internal/database"
	httpapi "vitalsync/internal/http"
	"vitalsync/internal/logger"
	"vitalsync/internal/repository"
	"vitalsync/internal/service"
	"vitalsync/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalsync")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.APIKey == "" {
		log.Fatal("API_KEY is required")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	activity := store.NewDeviceActivity(store.NewRedisKV(redisClient), log)

	var db *sql.DB
	var heartRates repository.HeartRateRepository
	var ecgs repository.ECGRepository

	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for vitalsync")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory store", zap.Error(err))
		}
	}
	if db != nil {
		heartRates = repository.NewPostgresHeartRateRepository(db, log)
		ecgs = repository.NewPostgresECGRepository(db, log)
	} else {
		// DB 未就绪：内存 repo 保持同样的自然键唯一语义，便于联测（数据不持久化）
		heartRates = repository.NewMemoryHeartRateRepo()
		ecgs = repository.NewMemoryECGRepo()
	}

	ingest := service.NewIngestService(heartRates, ecgs, activity, log)
	stats := service.NewStatsService(heartRates, ecgs, activity, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthDataRoutes(
		httpapi.NewHealthDataHandler(ingest, stats, heartRates, ecgs, log),
		cfg.APIKey,
	)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
