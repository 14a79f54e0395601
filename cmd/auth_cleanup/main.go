package main

import (
	"context"
	"log"
	"time"

	"fdsdashboard/internal/config"
	"fdsdashboard/internal/database"
	"fdsdashboard/internal/modules/auth"
	"fdsdashboard/internal/repository"
)

// One-shot purge of expired refresh tokens, for cron or a k8s CronJob.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	refreshRepo := repository.NewRefreshTokenRepository(db, cfg.RefreshTTL)
	cleanup := auth.NewCleanupService(refreshRepo, auth.CleanupConfig{
		Hour:     cfg.CleanupHour,
		Minute:   cfg.CleanupMinute,
		Location: cfg.CleanupZone,
	})

	deleted, err := cleanup.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup refresh_tokens failed: %v", err)
	}
	log.Printf("auth cleanup completed: refresh_tokens=%d", deleted)
}
