package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	resetTokenBytes = 32
	// ResetTokenTTL is how long a password reset token stays valid.
	ResetTokenTTL = 10 * time.Minute
)

// ResetToken is a freshly generated password reset token. Plaintext is sent
// to the user once; only Hash is persisted.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// GenerateResetToken creates a 256 bit random token that expires
// ResetTokenTTL after now.
func GenerateResetToken(now time.Time) (*ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	plain := hex.EncodeToString(buf)
	return &ResetToken{
		Plaintext: plain,
		Hash:      HashResetToken(plain),
		ExpiresAt: now.Add(ResetTokenTTL),
	}, nil
}

// HashResetToken returns the hex SHA-256 digest under which a reset token is stored.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
