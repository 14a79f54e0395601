package domain

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// ParseUserRole maps a stored or claimed role string onto the closed role set.
// Empty input resolves to RoleUser; anything else unrecognised is an error.
func ParseUserRole(v string) (UserRole, error) {
	switch UserRole(strings.TrimSpace(v)) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is owned by the signup/profile side; the auth core only reads it.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	LoginID      string    `json:"login_id" gorm:"column:login_id;size:50;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;size:255;not null"`
	Name         string    `json:"name" gorm:"size:50;not null"`
	Email        *string   `json:"email,omitempty" gorm:"size:100;uniqueIndex"`
	Birth        *string   `json:"birth,omitempty" gorm:"size:20"`
	Gender       *string   `json:"gender,omitempty" gorm:"size:10"`
	Role         UserRole  `json:"role" gorm:"size:20"`
	PwQuestion   *string   `json:"-" gorm:"column:pw_question;size:255"`
	PwAnswer     *string   `json:"-" gorm:"column:pw_answer;size:255"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// EffectiveRole never returns an empty role; rows written before the role
// column existed are treated as plain users.
func (u *User) EffectiveRole() UserRole {
	if u == nil || !u.Role.Valid() {
		return RoleUser
	}
	return u.Role
}
