package database

import (
	"fmt"
	"log"
	"strings"

	"fdsdashboard/internal/domain"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const sqliteBusyTimeoutMillis = "5000"

// Connect opens PostgreSQL for postgres:// DSNs and the pure-Go SQLite driver
// for anything else.
func Connect(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Println("Using SQLite for local development:", dsn)
	return openSQLite(dsn, cfg)
}

// OpenInMemory returns a migrated SQLite database that lives as long as its
// single connection.
func OpenInMemory() (*gorm.DB, error) {
	db, err := openSQLite(":memory:", &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables owned by the auth core.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// openSQLite pins the pool to one connection. SQLite has a single writer, so
// concurrent transactions queue in the pool instead of failing with
// SQLITE_BUSY; the busy timeout covers other processes on the same file.
func openSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        withBusyTimeout(dsn),
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return db, nil
}

func withBusyTimeout(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(" + sqliteBusyTimeoutMillis + ")"
}
