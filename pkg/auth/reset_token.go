package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const resetTokenBytes = 32

// NewResetToken returns a random token for the user and the digest that is
// safe to persist. Only the digest ever leaves the process.
func NewResetToken() (token string, digest string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("cannot generate reset token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, DigestResetToken(token), nil
}

func DigestResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
