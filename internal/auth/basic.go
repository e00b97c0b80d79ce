// Package auth implements the server's authentication pipeline: parsing the
// Authorization header, dispatching to basic or bearer verification, and
// enforcing the admin-loopback-only policy, per spec section 4.5.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

const adminUserName = "admin"

// authenticateBasic verifies a "username:base64(password)" credential.
// is_remote gates admin login: the admin principal may only authenticate
// from the loopback peer.
func authenticateBasic(ctx context.Context, db store.Store, adminPassword string, credential string, isRemote bool) (types.User, error) {
	username, encodedPassword, ok := strings.Cut(credential, ":")
	if !ok {
		return types.User{}, apperr.Auth("basic auth missing password")
	}

	password, err := base64.StdEncoding.DecodeString(encodedPassword)
	if err != nil {
		return types.User{}, apperr.Auth("decode password base64: %v", err)
	}

	if username == adminUserName {
		if isRemote {
			return types.User{}, apperr.Auth("cannot login as admin from remote")
		}
		if subtle.ConstantTimeCompare(password, []byte(adminPassword)) != 1 {
			return types.User{}, apperr.Auth("incorrect admin password")
		}
		return types.User{Name: adminUserName, Admin: true}, nil
	}

	var user types.User
	err = db.WithTx(ctx, func(tx store.Tx) error {
		has, err := tx.HasUser(ctx, username)
		if err != nil {
			return err
		}
		if !has {
			return apperr.Auth("incorrect username or password")
		}

		creds, err := tx.GetUserCredentials(ctx, username)
		if err != nil {
			return err
		}

		hash := crypto.HashPassword(string(password), creds.Salt)
		if subtle.ConstantTimeCompare([]byte(hash), []byte(creds.PasswordHash)) != 1 {
			return apperr.Auth("incorrect username or password")
		}

		user = types.User{Name: creds.Name, Admin: creds.Admin}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return types.User{}, err
		}
		return types.User{}, apperr.Database(err)
	}

	return user, nil
}
