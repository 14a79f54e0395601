package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fdsdashboard/internal/domain"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest HS256 key accepted at startup.
const MinSecretBytes = 32

var (
	ErrSecretMissing  = errors.New("jwt secret is required")
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretBytes)
	ErrInvalidToken   = errors.New("invalid token")
)

// Identity is what gets embedded into an access token.
type Identity struct {
	UserID  int64
	LoginID string
	Role    domain.UserRole
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	UserID *int64 `json:"uid,omitempty"`
	Role   string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// New fails when the secret is absent or too short; callers are expected to
// refuse to start in that case.
func New(secret []byte, ttl time.Duration) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("%w: got %d bytes", ErrSecretTooShort, len(secret))
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be > 0")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Service{secret: key, ttl: ttl, now: time.Now}, nil
}

// WithClock is meant for tests that need deterministic iat/exp.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) GenerateToken(id Identity) (string, error) {
	if strings.TrimSpace(id.LoginID) == "" {
		return "", errors.New("jwt: login id is required")
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("jwt: invalid role %q", id.Role)
	}

	now := s.now()
	uid := id.UserID
	claims := Claims{
		UserID: &uid,
		Role:   string(id.Role),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   id.LoginID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken checks signature, expiry and claim completeness. Every
// failure is reported as ErrInvalidToken.
func (s *Service) ValidateToken(tokenStr string) (*Identity, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.UserID == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	role, err := domain.ParseUserRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Identity{
		UserID:  *claims.UserID,
		LoginID: claims.Subject,
		Role:    role,
	}, nil
}
