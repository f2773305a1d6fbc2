package auth

import (
	"context"
)

// Identity is the authenticated principal attached to a request once the
// Guard has verified its session token.
type Identity struct {
	Subject int64
}

// `contextKey` is unexported so no other package can collide with it.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// NewContextWithIdentity returns a child of ctx carrying id.
func NewContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity stored by NewContextWithIdentity.
// The bool is false on routes that were not behind the Guard.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
