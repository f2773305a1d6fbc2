// Package users contains user registration, lookup, self-service edit and
// deletion, backed by a Repository.
package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/models"
)

// UserService holds the user business rules. Input is expected to be
// validated already; the service resolves, authorizes and writes.
type UserService struct {
	repo   Repository
	hasher auth.PasswordHasher
}

// NewUserService creates a UserService.
func NewUserService(repo Repository, hasher auth.PasswordHasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Browse lists all users.
func (s *UserService) Browse(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	return users, nil
}

// Read returns one user or a NotFoundError.
func (s *UserService) Read(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to read user", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", id), nil)
	}
	return user, nil
}

// Add hashes the password and stores a new user, returning its id.
// A duplicate email fails in the database and surfaces as a DatabaseError.
func (s *UserService) Add(ctx context.Context, in UserInput) (int64, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, apperror.NewInternalError("failed to hash password", err)
	}

	id, err := s.repo.Create(ctx, &models.User{Email: auth.NormalizeEmail(in.Email), PasswordHash: hash})
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to create user", err)
	}

	logging.FromContext(ctx).Info("User registered", zap.Int64("userID", id))
	return id, nil
}

// Edit replaces email and password of user id. Users may only edit
// themselves. A user deleted before the write lands is not found.
func (s *UserService) Edit(ctx context.Context, id int64, in UserInput) error {
	user, err := s.Read(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(ctx, user.ID); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperror.NewInternalError("failed to hash password", err)
	}

	user.Email = auth.NormalizeEmail(in.Email)
	user.PasswordHash = hash
	n, err := s.repo.Update(ctx, user)
	if err != nil {
		return apperror.NewDatabaseError("failed to update user", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("user %d not found", id), nil)
	}
	return nil
}

// Destroy deletes user id. Deleting a missing user succeeds; deleting
// someone else is an UnauthorizedError.
func (s *UserService) Destroy(ctx context.Context, id int64) error {
	user, err := s.Read(ctx, id)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(ctx, user.ID); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	logging.FromContext(ctx).Info("User deleted", zap.Int64("userID", id))
	return nil
}
