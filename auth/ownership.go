package auth

import (
	"context"

	"github.com/user/starter-go/apperror"
)

// Authorize reports whether id may modify a resource owned by ownerID.
// Ownership is the only rule: there are no roles.
func Authorize(id Identity, ownerID int64) bool {
	return id.Subject == ownerID
}

// RequireOwner checks the identity stored in ctx against ownerID.
// It returns an UnauthorizedError (403, same as authentication failures)
// when the caller is not the owner or when no identity is present.
func RequireOwner(ctx context.Context, ownerID int64) error {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return apperror.NewAuthError("authentication required", nil)
	}
	if !Authorize(id, ownerID) {
		return apperror.NewUnauthorizedError("not the owner of this resource", nil)
	}
	return nil
}
