package main

import (
	"context"
	"errors"
	"log"
	"os"

	"fdsdashboard/internal/config"
	"fdsdashboard/internal/database"
	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/password"
	"fdsdashboard/internal/repository"
)

// Seeds an ADMIN account. Signup only ever creates USER accounts, so this is
// how the first administrator gets in.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	loginID := os.Getenv("SEED_ADMIN_ID")
	pw := os.Getenv("SEED_ADMIN_PASSWORD")
	if loginID == "" || pw == "" {
		log.Fatal("SEED_ADMIN_ID and SEED_ADMIN_PASSWORD are required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)

	existing, err := userRepo.GetByLoginID(ctx, loginID)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if err := userRepo.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				log.Fatalf("promote %s: %v", loginID, err)
			}
			log.Printf("promoted existing user %s to ADMIN", loginID)
			return
		}
		log.Printf("admin %s already exists", loginID)
		return
	case !errors.Is(err, repository.ErrNotFound):
		log.Fatalf("lookup %s: %v", loginID, err)
	}

	hash, err := password.NewBcrypt(cfg.BcryptCost).Encode(pw)
	if err != nil {
		log.Fatal(err)
	}

	admin := &domain.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("created admin %s id=%d", loginID, admin.ID)
}
