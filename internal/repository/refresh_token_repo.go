package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"fdsdashboard/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	refreshTokenBytes  = 32
	userAgentMaxLength = 512
	ipAddressMaxLength = 64
)

// IssuedRefreshToken carries the raw value for the client and the hash used
// for chaining. The raw value is never persisted.
type IssuedRefreshToken struct {
	Raw    string
	Hash   string
	Record *domain.RefreshToken
}

// RefreshTokenTx is the part of the repository usable inside WithTx.
type RefreshTokenTx interface {
	FindActive(ctx context.Context, raw string, now time.Time) (*domain.RefreshToken, error)
	Rotate(ctx context.Context, record *domain.RefreshToken, userAgent, ip string, now time.Time) (IssuedRefreshToken, error)
}

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewRefreshTokenRepository(db *gorm.DB, ttl time.Duration) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, ttl: ttl}
}

func (r *RefreshTokenRepository) TTL() time.Duration { return r.ttl }

// WithTx runs fn against a repository bound to a single transaction. Row
// locks taken by FindActive are held until fn returns.
func (r *RefreshTokenRepository) WithTx(ctx context.Context, fn func(tx RefreshTokenTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RefreshTokenRepository{db: tx, ttl: r.ttl})
	})
}

// Issue generates a new random token and persists its hash.
func (r *RefreshTokenRepository) Issue(ctx context.Context, userID int64, userAgent, ip string, now time.Time) (IssuedRefreshToken, error) {
	raw, err := generateRefreshToken()
	if err != nil {
		return IssuedRefreshToken{}, err
	}
	hash := HashRefreshToken(raw)
	now = now.UTC()

	record := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
		UserAgent: limit(userAgent, userAgentMaxLength),
		IPAddress: limit(ip, ipAddressMaxLength),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return IssuedRefreshToken{}, fmt.Errorf("create refresh token: %w", err)
	}
	return IssuedRefreshToken{Raw: raw, Hash: hash, Record: record}, nil
}

// FindActive looks the token up under an exclusive row lock and classifies it.
// Call it through WithTx so the lock outlives the lookup.
func (r *RefreshTokenRepository) FindActive(ctx context.Context, raw string, now time.Time) (*domain.RefreshToken, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrRefreshTokenMissing
	}

	var t domain.RefreshToken
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ?", HashRefreshToken(raw)).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenMissing
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if t.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if t.IsExpired(now) {
		return nil, ErrRefreshTokenExpired
	}
	return &t, nil
}

// Rotate issues a successor for record and revokes record in favour of it.
// The revoke is a conditional update, so a concurrent rotation that got there
// first makes this one fail with ErrRefreshTokenRevoked.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, record *domain.RefreshToken, userAgent, ip string, now time.Time) (IssuedRefreshToken, error) {
	now = now.UTC()
	record.LastUsedAt = &now

	issued, err := r.Issue(ctx, record.UserID, userAgent, ip, now)
	if err != nil {
		return IssuedRefreshToken{}, err
	}

	res := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", record.ID).
		Updates(map[string]any{
			"last_used_at": now,
			"revoked_at":   now,
			"replaced_by":  issued.Hash,
		})
	if res.Error != nil {
		return IssuedRefreshToken{}, fmt.Errorf("revoke rotated refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return IssuedRefreshToken{}, ErrRefreshTokenRevoked
	}

	record.RevokedAt = &now
	replacedBy := issued.Hash
	record.ReplacedBy = &replacedBy
	return issued, nil
}

// Revoke is best-effort: blank, unknown and already revoked tokens are a no-op.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, raw string, now time.Time) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	now = now.UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", HashRefreshToken(raw)).
		Updates(map[string]any{
			"last_used_at": now,
			"revoked_at":   now,
			"replaced_by":  nil,
		}).Error
}

// PurgeExpiredBefore deletes rows whose expiry is strictly before cutoff.
func (r *RefreshTokenRepository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff.UTC()).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

// HashRefreshToken returns the hex SHA-256 of the raw token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func limit(v string, max int) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if runes := []rune(v); len(runes) > max {
		v = string(runes[:max])
	}
	return &v
}
