// Package items manages titled items. Anyone may read them; only their
// owner may change or delete them.
package items

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/models"
)

// ItemService holds the item business rules on top of a Repository.
type ItemService struct {
	repo Repository
}

// NewItemService creates an ItemService.
func NewItemService(repo Repository) *ItemService {
	return &ItemService{repo: repo}
}

// Browse lists all items ordered by id.
func (s *ItemService) Browse(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list items", err)
	}
	return items, nil
}

// Read returns one item or a NotFoundError.
func (s *ItemService) Read(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to read item", err)
	}
	if item == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("item %d not found", id), nil)
	}
	return item, nil
}

// Add stores a new item owned by the caller. The owner always comes from
// the session, never from the request body.
func (s *ItemService) Add(ctx context.Context, in ItemInput) (int64, error) {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return 0, apperror.NewAuthError("authentication required", nil)
	}

	id, err := s.repo.Create(ctx, &models.Item{Title: in.Title, OwnerID: caller.Subject})
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to create item", err)
	}

	logging.FromContext(ctx).Debug("Item created", zap.Int64("itemID", id), zap.Int64("userID", caller.Subject))
	return id, nil
}

// Edit retitles item id after checking the caller owns it. An item that
// disappears between the check and the write is reported as not found.
func (s *ItemService) Edit(ctx context.Context, id int64, in ItemInput) error {
	item, err := s.Read(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(ctx, item.OwnerID); err != nil {
		return err
	}

	item.Title = in.Title
	n, err := s.repo.Update(ctx, item)
	if err != nil {
		return apperror.NewDatabaseError("failed to update item", err)
	}
	if n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("item %d not found", id), nil)
	}
	return nil
}

// Destroy deletes item id. A missing item is not an error.
func (s *ItemService) Destroy(ctx context.Context, id int64) error {
	item, err := s.Read(ctx, id)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(ctx, item.OwnerID); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return apperror.NewDatabaseError("failed to delete item", err)
	}
	return nil
}
