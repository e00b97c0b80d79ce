package auth

import (
	"context"
	"strings"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

// Pipeline authenticates incoming requests against the store and the JWT
// validator, dispatching by Authorization scheme.
type Pipeline struct {
	db            store.Store
	jwtValidator  *crypto.JWTValidator
	adminPassword string
}

// NewPipeline builds a Pipeline. adminPassword is the config-provided
// plaintext compared against a loopback admin login attempt.
func NewPipeline(db store.Store, jwtValidator *crypto.JWTValidator, adminPassword string) *Pipeline {
	return &Pipeline{db: db, jwtValidator: jwtValidator, adminPassword: adminPassword}
}

// Authenticate parses header and dispatches to basic or bearer
// verification. peerIsLoopback should be true only when the request's
// remote address resolved to 127.0.0.1.
func (p *Pipeline) Authenticate(ctx context.Context, header string, peerIsLoopback bool) (types.User, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return types.User{}, apperr.Auth("malformed authorization header")
	}

	scheme, credential := strings.ToLower(fields[0]), fields[1]
	isRemote := !peerIsLoopback

	switch scheme {
	case "basic":
		return authenticateBasic(ctx, p.db, p.adminPassword, credential, isRemote)
	case "bearer":
		return authenticateBearer(p.jwtValidator, credential, isRemote)
	default:
		return types.User{}, apperr.Auth("unsupported authorization scheme %q", scheme)
	}
}
