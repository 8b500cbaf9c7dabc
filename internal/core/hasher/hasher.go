// Package hasher implements salted password hashing and verification.
package hasher

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const saltBytes = 16

// Hasher generates and verifies salted password hashes. Implementations must
// never log or return the plaintext password.
type Hasher interface {
	// Hash derives a fresh salt and the matching hash for the password.
	Hash(password string) (salt, hash string, err error)
	// Verify reports whether password matches the stored hash and salt.
	Verify(password, hash, salt string) bool
}

// SHA256 hashes passwords as hex(sha256(password || salt)) with a fresh
// 16-byte random salt rendered as 32 hex characters.
type SHA256 struct{}

// NewSHA256 returns the default hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

func (h *SHA256) Hash(password string) (string, string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	return salt, h.digest(password, salt), nil
}

func (h *SHA256) Verify(password, hash, salt string) bool {
	// Constant-time comparison; the computed digest is hex so lengths match
	// whenever the stored hash is well-formed.
	return subtle.ConstantTimeCompare([]byte(h.digest(password, salt)), []byte(hash)) == 1
}

func (h *SHA256) digest(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}
