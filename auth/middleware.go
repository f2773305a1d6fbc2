package auth

import (
	"context"
	"net/http"

	"github.com/user/starter-go/apperror"
)

// TokenVerifier resolves a session token into an Identity.
// *TokenService is the production implementation.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Guard is the authentication middleware. It reads the session cookie,
// verifies the token and stores the Identity in the request context.
//
// A missing cookie and a bad token get the same 403 so a client cannot
// probe which one it sent.
func Guard(tokens TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := TokenFromRequest(r)
			if !ok {
				apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
				return
			}

			id, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				apperror.WriteError(w, r, apperror.NewAuthError("authentication required", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithIdentity(r.Context(), id)))
		})
	}
}
