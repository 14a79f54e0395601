package domain

import "time"

// RefreshToken stores refresh tokens for users.
//
// Security notes:
// - We never store the raw token in DB, only its SHA-256 hash (TokenHash).
// - On refresh we rotate tokens: old token is revoked and ReplacedBy points at
//   the successor's hash. Logout revokes without a successor.
// - Rows are only deleted by the expiry purge, never by revocation.
type RefreshToken struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"index;not null"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	ExpiresAt  time.Time  `json:"expires_at" gorm:"index;not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
	RevokedAt  *time.Time `json:"revoked_at"`
	ReplacedBy *string    `json:"-" gorm:"size:64"`
	LastUsedAt *time.Time `json:"last_used_at"`

	UserAgent *string `json:"user_agent" gorm:"size:512"`
	IPAddress *string `json:"ip_address" gorm:"column:ip_address;size:64"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsExpired reports whether the token is past its lifetime. A token whose
// expiry equals now is already expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
