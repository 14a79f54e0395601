package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr              = ":8080"
	defaultJWTExpirationMinutes  = "15"
	defaultRefreshExpirationDays = "14"
	defaultCookieSecure          = "false"
	defaultCookiePath            = "/api/auth"
	defaultBcryptCost            = "10"
	defaultCleanupAt             = "03:00"
	defaultCleanupTimezone       = "Asia/Seoul"
	defaultCleanupEnabled        = "true"

	minJWTSecretBytes = 32
)

type AuthRuntimeConfig struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	JWTSecret      []byte
	JWTAccessTTL   time.Duration
	RefreshTTL     time.Duration
	BcryptCost     int
	CookieSecure   bool
	CookiePath     string
	CleanupEnabled bool
	CleanupHour    int
	CleanupMinute  int
	CleanupZone    *time.Location
	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over .env entries.
func Load(envFiles ...string) (*AuthRuntimeConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return LoadAuthRuntimeConfig()
}

func LoadAuthRuntimeConfig() (*AuthRuntimeConfig, error) {
	cfg := &AuthRuntimeConfig{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = []byte(strings.TrimSpace(os.Getenv("JWT_SECRET")))

	minutes, err := parseIntEnv("JWT_EXPIRATION_MINUTES", defaultJWTExpirationMinutes)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = time.Duration(minutes) * time.Minute

	days, err := parseIntEnv("REFRESH_EXPIRATION_DAYS", defaultRefreshExpirationDays)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL = time.Duration(days) * 24 * time.Hour

	cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", defaultBcryptCost)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookiePath = strings.TrimSpace(getEnv("COOKIE_PATH", defaultCookiePath))

	cfg.CleanupEnabled = parseBoolEnv("CLEANUP_ENABLED", defaultCleanupEnabled)
	cfg.CleanupHour, cfg.CleanupMinute, err = parseClockEnv("CLEANUP_AT", defaultCleanupAt)
	if err != nil {
		return nil, err
	}
	zone := strings.TrimSpace(getEnv("CLEANUP_TIMEZONE", defaultCleanupTimezone))
	cfg.CleanupZone, err = time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_TIMEZONE value %q: %w", zone, err)
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("auth config: env=%s access_ttl=%s refresh_ttl=%s cookie_secure=%t cookie_path=%s cleanup=%t",
		cfg.AppEnv, cfg.JWTAccessTTL, cfg.RefreshTTL, cfg.CookieSecure, cfg.CookiePath, cfg.CleanupEnabled)

	return cfg, nil
}

func validateConfig(cfg *AuthRuntimeConfig) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes for HS256, got %d", minJWTSecretBytes, len(cfg.JWTSecret))
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MINUTES must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_EXPIRATION_DAYS must be > 0")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.CookiePath == "" {
		return fmt.Errorf("COOKIE_PATH must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
			return fmt.Errorf("in prod/release DATABASE_URL must point at PostgreSQL")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseClockEnv(name, fallback string) (int, int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return t.Hour(), t.Minute(), nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
