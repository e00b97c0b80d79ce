package handlers

import (
	"context"

	"github.com/dreamware/csync/internal/types"
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated principal to ctx. Called by
// the HTTP surface's auth middleware after a successful Authenticate.
func ContextWithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the principal attached by ContextWithUser.
func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(types.User)
	return user, ok
}
