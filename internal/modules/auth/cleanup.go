package auth

import (
	"context"
	"log"
	"time"
	_ "time/tzdata"
)

// ExpiredTokenPurger is the slice of the refresh store the cleanup job uses.
type ExpiredTokenPurger interface {
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupConfig holds when the daily purge runs.
type CleanupConfig struct {
	Hour     int
	Minute   int
	Location *time.Location
}

func DefaultCleanupConfig() CleanupConfig {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.Local
	}
	return CleanupConfig{Hour: 3, Minute: 0, Location: loc}
}

// CleanupService deletes refresh tokens whose lifetime has ended.
type CleanupService struct {
	store ExpiredTokenPurger
	cfg   CleanupConfig
	now   func() time.Time
}

func NewCleanupService(store ExpiredTokenPurger, cfg CleanupConfig) *CleanupService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &CleanupService{store: store, cfg: cfg, now: time.Now}
}

// PurgeExpired removes rows with expires_at before now. Rows are never
// removed before they expire, whatever their revocation state.
func (c *CleanupService) PurgeExpired(ctx context.Context) (int64, error) {
	startTime := c.now()

	deleted, err := c.store.PurgeExpiredBefore(ctx, startTime)
	if err != nil {
		log.Printf("refresh_token_cleanup_failed error=%v", err)
		return 0, err
	}
	if deleted > 0 {
		log.Printf("refresh_token_cleanup deleted=%d took=%s", deleted, time.Since(startTime))
	}
	return deleted, nil
}

// Start runs PurgeExpired once a day at the configured local time until ctx
// is cancelled. The returned channel is closed when the loop exits.
func (c *CleanupService) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			wait := c.NextRun(c.now()).Sub(c.now())
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				_, _ = c.PurgeExpired(ctx)
			case <-ctx.Done():
				timer.Stop()
				log.Println("refresh token cleanup stopped")
				return
			}
		}
	}()

	log.Printf("refresh token cleanup scheduled daily at %02d:%02d %s", c.cfg.Hour, c.cfg.Minute, c.cfg.Location)
	return done
}

// NextRun returns the first scheduled instant strictly after now.
func (c *CleanupService) NextRun(now time.Time) time.Time {
	local := now.In(c.cfg.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), c.cfg.Hour, c.cfg.Minute, 0, 0, c.cfg.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
