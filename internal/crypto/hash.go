// Package crypto implements the server's crypto primitives: password
// hashing, data hashing, AES-256-GCM framing and RS256 JWT sign/verify.
// See SPEC_FULL.md §3 for the library choices.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const saltCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256Raw returns the raw 32-byte SHA-256 digest of data, for use as an
// AES-256 key.
func SHA256Raw(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HashPassword returns sha256(plaintext ∥ salt) as a lowercase hex digest.
func HashPassword(plaintext, salt string) string {
	return SHA256Hex([]byte(plaintext + salt))
}

// GenerateSalt returns a random alphanumeric string of the given length,
// suitable as a per-user password salt.
func GenerateSalt(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = saltCharset[int(b)%len(saltCharset)]
	}
	return string(out), nil
}
