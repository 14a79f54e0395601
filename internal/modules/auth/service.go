package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fdsdashboard/internal/domain"
	"fdsdashboard/internal/pkg/jwt"
	"fdsdashboard/internal/pkg/password"
	"fdsdashboard/internal/repository"
)

// Service contains the login, refresh and logout flows.
type Service struct {
	users     UserReader
	passwords password.Verifier
	tokens    TokenIssuer
	refresh   RefreshTokenStore
	now       func() time.Time
}

func NewService(users UserReader, passwords password.Verifier, tokens TokenIssuer, refresh RefreshTokenStore) *Service {
	return &Service{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		refresh:   refresh,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests around expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) Login(ctx context.Context, req LoginRequest, userAgent, ip string) (*AuthResult, error) {
	if isBlank(req.UserID) || isBlank(req.Password) {
		return nil, ErrBadRequest
	}
	loginID := strings.TrimSpace(req.UserID)

	user, err := s.users.GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same bcrypt work as a wrong password for an existing account.
			s.passwords.Matches(req.Password, s.passwords.DummyHash())
			logRejected("login", "unknown_user", ip)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("login: lookup user: %w", err)
	}

	if !s.passwords.Matches(req.Password, user.PasswordHash) {
		logRejected("login", "bad_credentials", ip)
		return nil, ErrUnauthorized
	}

	issued, err := s.refresh.Issue(ctx, user.ID, userAgent, ip, s.now())
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.buildResult(user, issued.Raw)
}

// Refresh rotates the presented token. Missing, revoked and expired tokens
// all come back as ErrUnauthorized.
func (s *Service) Refresh(ctx context.Context, refreshRaw, userAgent, ip string) (*AuthResult, error) {
	if isBlank(refreshRaw) {
		logRejected("refresh", "missing", ip)
		return nil, ErrUnauthorized
	}

	now := s.now()
	var (
		rotated repository.IssuedRefreshToken
		userID  int64
	)
	err := s.refresh.WithTx(ctx, func(tx repository.RefreshTokenTx) error {
		current, err := tx.FindActive(ctx, refreshRaw, now)
		if err != nil {
			return err
		}
		rotated, err = tx.Rotate(ctx, current, userAgent, ip, now)
		if err != nil {
			return err
		}
		userID = current.UserID
		return nil
	})
	if err != nil {
		if reason, ok := refreshRejection(err); ok {
			logRejected("refresh", reason, ip)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	// Role is re-read so privilege changes apply from the next refresh on.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logRejected("refresh", "user_gone", ip)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("refresh: lookup user: %w", err)
	}

	return s.buildResult(user, rotated.Raw)
}

// Logout revokes the refresh token if it is still live. Blank, unknown and
// already revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshRaw string) error {
	if isBlank(refreshRaw) {
		return nil
	}
	if err := s.refresh.Revoke(ctx, refreshRaw, s.now()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) buildResult(user *domain.User, refreshRaw string) (*AuthResult, error) {
	role := user.EffectiveRole()
	accessToken, err := s.tokens.GenerateToken(jwt.Identity{
		UserID:  user.ID,
		LoginID: user.LoginID,
		Role:    role,
	})
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResult{
		Response: LoginResponse{
			AccessToken: accessToken,
			TokenType:   TokenTypeBearer,
			ExpiresIn:   int64(s.tokens.TTL() / time.Second),
			UserID:      user.ID,
			LoginID:     user.LoginID,
			Role:        string(role),
		},
		RefreshToken: refreshRaw,
	}, nil
}

func refreshRejection(err error) (string, bool) {
	switch {
	case errors.Is(err, repository.ErrRefreshTokenMissing):
		return "missing", true
	case errors.Is(err, repository.ErrRefreshTokenRevoked):
		return "revoked", true
	case errors.Is(err, repository.ErrRefreshTokenExpired):
		return "expired", true
	default:
		return "", false
	}
}

func logRejected(op, reason, ip string) {
	log.Printf("auth_rejected op=%s reason=%s client_ip=%s", op, reason, ip)
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}
