package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"convo-cafe/internal/config"
	"convo-cafe/internal/db"
	apihttp "convo-cafe/internal/http"
	"convo-cafe/internal/repository"
	"convo-cafe/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)

	// Con Redis disponible, los resultados de similitud se comparten entre
	// procesos; sin Redis, cache en memoria por proceso.
	var resultCache service.ResultCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resultCache = service.NewRedisResultCache(redisClient, time.Duration(cfg.SimilarityCacheTTLMinutes)*time.Minute)
		}
		cancel()
	}
	if resultCache == nil {
		resultCache = service.NewMemoryResultCache(
			time.Duration(cfg.SimilarityCacheTTLMinutes)*time.Minute,
			cfg.SimilarityCacheMaxEntries,
		)
	}

	similaritySvc := service.NewSimilarityService(
		logger,
		profileRepo,
		service.NewSimilarityCalculator(),
		resultCache,
		time.Duration(cfg.CommunityCacheTTLMinutes)*time.Minute,
		cfg.CommunityCacheMaxEntries,
	)

	userHandler := apihttp.NewUserHandler(logger, userRepo)
	profileHandler := apihttp.NewProfileHandler(logger, profileRepo, similaritySvc)
	similarityHandler := apihttp.NewSimilarityHandler(logger, similaritySvc)
	router := apihttp.NewRouter(logger, userHandler, profileHandler, similarityHandler, func(ctx context.Context) error {
		return db.Ping(ctx, pool)
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
