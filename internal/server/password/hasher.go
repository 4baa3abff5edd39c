// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt consumes. Longer passwords are
// truncated the way passlib does, so multibyte passwords that pass the
// character limit still hash.
const maxPasswordBytes = 72

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hasher is safe for concurrent use; its cost is fixed at construction.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a Hasher using the given bcrypt cost. Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("courseauth-timing-placeholder"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns a salted bcrypt hash of password. Only the first 72 bytes
// take part in the hash.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A malformed hash yields false.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

// Waste performs a comparison against a throwaway hash so that a lookup miss
// costs about as much as a wrong password.
func (h *Hasher) Waste(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, truncate(password))
}
