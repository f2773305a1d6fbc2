package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/starter-go/logging"
)

// TokenLifetime is how long an issued session token stays valid.
const TokenLifetime = time.Hour

// ErrInvalidToken is returned for every token that fails verification.
// Callers cannot tell an expired token from a forged one; the reason is only
// logged server-side.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService issues and verifies HS256-signed JWTs whose `sub` claim holds
// the user id. Tokens are stateless: there is no server-side revocation list,
// so a token stays usable until `exp` even after logout.
type TokenService struct {
	secret []byte
	// `now` is swapped in tests to move the clock past expiry.
	now func() time.Time
}

// NewTokenService builds a TokenService signing with secret.
// An empty secret is rejected because HMAC with an empty key signs nothing.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for subject with `iat` set to now and `exp` one
// TokenLifetime later. Each token carries a random `jti`, so two tokens
// issued in the same second still differ.
func (s *TokenService) Issue(subject int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subject, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, the algorithm and the expiry of tokenString
// and returns the identity it names. Any failure yields ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (Identity, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		// Pinning the algorithm rejects `alg: none` and RS/HS confusion.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		logging.FromContext(ctx).Debug("Session token rejected", zap.String("reason", rejectReason(err)), zap.Error(err))
		return Identity{}, ErrInvalidToken
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 {
		logging.FromContext(ctx).Debug("Session token rejected", zap.String("reason", "subject"), zap.String("sub", claims.Subject))
		return Identity{}, ErrInvalidToken
	}

	return Identity{Subject: subject}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
