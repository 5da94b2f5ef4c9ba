package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher hashes and verifies passwords with bcrypt. The number of concurrent
// bcrypt computations is capped at GOMAXPROCS so hashing cannot starve the
// request handlers.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher for the given bcrypt cost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

// HashPassword returns the bcrypt hash of plaintext.
func (h *Hasher) HashPassword(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches hash. Mismatches, malformed
// hashes and cancelled contexts all yield false.
func (h *Hasher) VerifyPassword(ctx context.Context, plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
