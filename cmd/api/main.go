package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fdsdashboard/internal/config"
	"fdsdashboard/internal/database"
	"fdsdashboard/internal/modules/auth"
	"fdsdashboard/internal/modules/users"
	jwtsvc "fdsdashboard/internal/pkg/jwt"
	"fdsdashboard/internal/pkg/password"
	"fdsdashboard/internal/repository"
	"fdsdashboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Refuse to start without a usable signing key.
	j, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db, cfg.RefreshTTL)
	passwords := password.NewBcrypt(cfg.BcryptCost)

	authService := auth.NewService(userRepo, passwords, j, refreshRepo)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Path:   cfg.CookiePath,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.RefreshTTL,
	})

	usersService := users.NewService(userRepo, passwords)
	usersHandler := users.NewHandler(usersService)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(server.Deps{
		Tokens:         j,
		Auth:           authHandler,
		Users:          usersHandler,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cleanupDone <-chan struct{}
	if cfg.CleanupEnabled {
		cleanup := auth.NewCleanupService(refreshRepo, auth.CleanupConfig{
			Hour:     cfg.CleanupHour,
			Minute:   cfg.CleanupMinute,
			Location: cfg.CleanupZone,
		})
		cleanupDone = cleanup.Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if cleanupDone != nil {
		<-cleanupDone
	}
	log.Println("http server stopped")
}
