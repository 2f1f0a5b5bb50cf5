package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"convo-cafe/internal/config"
	"convo-cafe/internal/db"
	"convo-cafe/internal/repository"
	"convo-cafe/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: warm_cache <community-id>")
	}
	communityID := os.Args[1]

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	profileRepo := repository.NewPgProfileRepository(pool)
	similaritySvc := service.NewSimilarityService(
		logger,
		profileRepo,
		service.NewSimilarityCalculator(),
		nil,
		time.Duration(cfg.CommunityCacheTTLMinutes)*time.Minute,
		cfg.CommunityCacheMaxEntries,
	)

	start := time.Now()
	if err := similaritySvc.WarmUpCache(ctx, communityID, cfg.WarmUpTopUsers); err != nil {
		log.Fatalf("warm up community %s: %v", communityID, err)
	}

	stats := similaritySvc.GetCacheStats(ctx)
	fmt.Printf("warmed community %s in %s\n", communityID, time.Since(start).Round(time.Millisecond))
	fmt.Printf("communities cached: %d, similarity entries: %d\n", stats.CommunityEntries, stats.SimilarityEntries)
}
