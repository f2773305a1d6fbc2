// Package seed inserts demo data for local development.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/items"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/models"
	"github.com/user/starter-go/users"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "123456"
)

// DemoItemTitles are the items created for the demo user.
var DemoItemTitles = []string{"Buy milk", "Water the plants"}

// Run creates the demo user and their items. It does nothing when the
// demo user already exists, so it is safe to run repeatedly.
func Run(ctx context.Context, userRepo users.Repository, itemRepo items.Repository, hasher auth.PasswordHasher) error {
	log := logging.FromContext(ctx)

	existing, err := userRepo.ReadByEmail(ctx, DemoEmail)
	if err != nil {
		return fmt.Errorf("seed: look up demo user: %w", err)
	}
	if existing != nil {
		log.Info("Demo data already present", zap.Int64("userID", existing.ID))
		return nil
	}

	hash, err := hasher.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("seed: hash demo password: %w", err)
	}
	userID, err := userRepo.Create(ctx, &models.User{Email: DemoEmail, PasswordHash: hash})
	if err != nil {
		return fmt.Errorf("seed: create demo user: %w", err)
	}

	for _, title := range DemoItemTitles {
		if _, err := itemRepo.Create(ctx, &models.Item{Title: title, OwnerID: userID}); err != nil {
			return fmt.Errorf("seed: create item %q: %w", title, err)
		}
	}

	log.Info("Demo data created", zap.Int64("userID", userID), zap.Int("items", len(DemoItemTitles)))
	return nil
}
