package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// NonceSize is the standard AES-GCM nonce length used on the wire.
const NonceSize = 12

// StreamCipher seals/opens frames with AES-256-GCM, prepending a fresh
// random nonce to every ciphertext. Adapted from the nonce-prepend pattern
// in cuemby-warren/pkg/security/secrets.go, generalized to an arbitrary
// pre-derived 32-byte key instead of a cipher-owned one, since every events
// subscription derives its own key.
type StreamCipher struct {
	gcm cipher.AEAD
}

// NewStreamCipher builds a StreamCipher from a 32-byte AES-256 key.
func NewStreamCipher(key []byte) (*StreamCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-256 key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &StreamCipher{gcm: gcm}, nil
}

// Seal encrypts plaintext, returning nonce ∥ ciphertext.
func (c *StreamCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce ∥ ciphertext payload produced by Seal.
func (c *StreamCipher) Open(payload []byte) ([]byte, error) {
	nonceSize := c.gcm.NonceSize()
	if len(payload) < nonceSize {
		return nil, fmt.Errorf("payload shorter than nonce")
	}
	nonce, ciphertext := payload[:nonceSize], payload[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plaintext, nil
}
