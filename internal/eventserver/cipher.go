package eventserver

import (
	"io"

	"github.com/dreamware/csync/internal/crypto"
)

// cipherWriter wraps writeFrame, sealing the payload first when a cipher is
// attached.
type cipherWriter struct {
	w      io.Writer
	cipher *crypto.StreamCipher
}

func (c *cipherWriter) write(payload []byte) error {
	if c.cipher == nil {
		return writeFrame(c.w, payload)
	}
	sealed, err := c.cipher.Seal(payload)
	if err != nil {
		return err
	}
	return writeFrame(c.w, sealed)
}

// cipherReader wraps readFrame, opening the payload first when a cipher is
// attached.
type cipherReader struct {
	r      io.Reader
	cipher *crypto.StreamCipher
}

func (c *cipherReader) read() ([]byte, error) {
	payload, err := readFrame(c.r)
	if err != nil {
		return nil, err
	}
	if c.cipher == nil {
		return payload, nil
	}
	return c.cipher.Open(payload)
}

// deriveConnectionKey derives the 32-byte AES-256-GCM key for a
// subscription from the subscriber's password hash, per spec section 4.2:
// key = sha256(user_password_hash).
func deriveConnectionKey(passwordHash string) []byte {
	return crypto.SHA256Raw([]byte(passwordHash))
}
