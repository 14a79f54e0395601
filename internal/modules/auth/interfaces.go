package auth

import (
	"context"
	"time"

	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/jwt"
	"fdsdashboard/internal/repository"
)

// UserReader is the user lookup the auth core needs; it never writes users.
type UserReader interface {
	GetByLoginID(ctx context.Context, loginID string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TokenIssuer interface {
	GenerateToken(id jwt.Identity) (string, error)
	TTL() time.Duration
}

// RefreshTokenStore persists refresh tokens. FindActive and Rotate are only
// reachable through WithTx so the row lock spans both.
type RefreshTokenStore interface {
	Issue(ctx context.Context, userID int64, userAgent, ip string, now time.Time) (repository.IssuedRefreshToken, error)
	WithTx(ctx context.Context, fn func(tx repository.RefreshTokenTx) error) error
	Revoke(ctx context.Context, raw string, now time.Time) error
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
