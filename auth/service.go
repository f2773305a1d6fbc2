// Package auth implements session authentication: argon2id password hashing,
// HS256 session tokens carried in a `__Host-` cookie, the Guard middleware
// that turns the cookie into an Identity, and the ownership rule used by the
// resource handlers.
package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/models"
)

// UserReader is what authentication needs from user storage.
// Both users.PostgresRepository and memstore.Users satisfy it.
// Lookups return (nil, nil) when no user matches.
type UserReader interface {
	ReadByEmail(ctx context.Context, email string) (*models.User, error)
	ReadByID(ctx context.Context, id int64) (*models.User, error)
}

// PasswordHasher is implemented by *Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

// TokenIssuer is implemented by *TokenService.
type TokenIssuer interface {
	Issue(subject int64) (string, error)
}

// AuthService checks credentials and resolves sessions to users.
type AuthService struct {
	users  UserReader
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewAuthService wires the service to its storage, hasher and token issuer.
func NewAuthService(users UserReader, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies creds and returns the matching user with a freshly issued
// session token. Unknown email and wrong password produce the same
// AuthError so the response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*models.User, string, error) {
	user, err := s.users.ReadByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		return nil, "", apperror.NewDatabaseError("failed to look up user", err)
	}
	if user == nil {
		logging.FromContext(ctx).Debug("Login rejected", zap.String("reason", "unknown email"))
		return nil, "", apperror.NewAuthError("invalid credentials", nil)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, creds.Password)
	if err != nil {
		return nil, "", apperror.NewInternalError("stored password hash is unreadable", err)
	}
	if !ok {
		logging.FromContext(ctx).Debug("Login rejected", zap.String("reason", "wrong password"), zap.Int64("userID", user.ID))
		return nil, "", apperror.NewAuthError("invalid credentials", nil)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", apperror.NewInternalError("failed to issue session token", err)
	}
	return user, token, nil
}

// Me returns the user the identity refers to. A token may outlive its user,
// so a missing user is an AuthError rather than a NotFound.
func (s *AuthService) Me(ctx context.Context, id Identity) (*models.User, error) {
	user, err := s.users.ReadByID(ctx, id.Subject)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}
	if user == nil {
		return nil, apperror.NewAuthError("session user no longer exists", nil)
	}
	return user, nil
}
