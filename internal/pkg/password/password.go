// Package password hashes and verifies user credentials.
package password

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a raw password against a stored hash. Implementations must
// return false for any stored value they do not recognise.
//
// DummyHash returns a valid hash at the verifier's cost that no caller knows
// the password for. Comparing against it costs the same as a real check.
type Verifier interface {
	Matches(raw, stored string) bool
	DummyHash() string
}

// Encoder produces a storable hash for a raw password.
type Encoder interface {
	Encode(raw string) (string, error)
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// BcryptVerifier is the only hash family accepted for stored passwords.
type BcryptVerifier struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// NewBcrypt clamps cost into bcrypt's accepted range; 0 means bcrypt.DefaultCost.
func NewBcrypt(cost int) *BcryptVerifier {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptVerifier{cost: cost}
}

func (b *BcryptVerifier) Encode(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// DummyHash is generated once per verifier, on first use.
func (b *BcryptVerifier) DummyHash() string {
	b.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("fds-unknown-account"), b.cost)
		if err == nil {
			b.dummy = string(hash)
		}
	})
	return b.dummy
}

// Matches is fail-closed: blank or non-bcrypt stored values never match.
func (b *BcryptVerifier) Matches(raw, stored string) bool {
	if strings.TrimSpace(stored) == "" || !hasBcryptPrefix(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(raw)) == nil
}

func hasBcryptPrefix(v string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}
