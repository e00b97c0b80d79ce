package auth

import (
	"time"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/types"
)

// authenticateBearer validates a JWT and enforces that the admin principal
// may not authenticate remotely, mirroring the basic-auth admin gate.
func authenticateBearer(validator *crypto.JWTValidator, token string, isRemote bool) (types.User, error) {
	user, err := validator.Validate(token, time.Now())
	if err != nil {
		return types.User{}, apperr.Auth("invalid bearer token: %v", err)
	}

	if user.Name == adminUserName && isRemote {
		return types.User{}, apperr.Auth("cannot login as admin from remote")
	}

	return user, nil
}
