// Package eventserver implements the events server (C7): a TCP listener
// that authenticates one subscriber per connection, negotiates a
// per-connection AES-256-GCM cipher, and streams Event records as
// length-prefixed frames.
package eventserver

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readBufferSize is the incremental read buffer size; frames larger than
// this still work, they are just read in more than one chunk.
const readBufferSize = 32 * 1024

// maxFrameSize bounds a single frame to guard against a peer claiming an
// absurd length and exhausting memory.
const maxFrameSize = 64 * 1024 * 1024

// readFrame reads one u64-big-endian-length-prefixed frame from r.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint64(lenBuf[:])
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds maximum %d", length, maxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// writeFrame writes payload to w as one length-prefixed frame.
func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
