package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/revision"
	"github.com/dreamware/csync/internal/store"
)

// Config carries the handler-layer policy knobs sourced from server
// configuration: TTLs and display widths the store itself has no opinion
// about.
type Config struct {
	RecycleSeconds   uint64
	TruncateTextWidth int
	SaltLength       int
	JWTExpiry        time.Duration
}

// Handlers bundles every dependency the HTTP endpoints need: storage, the
// revision cache, the event bus, a JWT generator, and handler policy.
type Handlers struct {
	DB       store.Store
	Revision *revision.Register
	Bus      *events.Bus
	JWT      *crypto.JWTGenerator
	Cfg      Config
	Log      zerolog.Logger
}

func (h *Handlers) now() uint64 {
	return uint64(time.Now().Unix())
}
