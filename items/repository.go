package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/user/starter-go/db"
	"github.com/user/starter-go/models"
)

// Repository is the item storage contract. ReadByID returns (nil, nil)
// for a missing id. Update and Delete report how many rows they touched,
// so a missing id yields 0 rather than an error.
type Repository interface {
	Create(ctx context.Context, item *models.Item) (int64, error)
	ReadAll(ctx context.Context) ([]models.Item, error)
	ReadByID(ctx context.Context, id int64) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// PostgresRepository stores items in the `item` table.
type PostgresRepository struct {
	db db.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a repository running its queries on q.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// Create inserts item and returns the generated id.
func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO item (title, user_id) VALUES ($1, $2) RETURNING id`,
		item.Title, item.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// ReadAll lists every item ordered by id.
func (r *PostgresRepository) ReadAll(ctx context.Context) ([]models.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, user_id FROM item ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.OwnerID); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// ReadByID returns the item with the given id.
func (r *PostgresRepository) ReadByID(ctx context.Context, id int64) (*models.Item, error) {
	var it models.Item
	err := r.db.QueryRow(ctx, `SELECT id, title, user_id FROM item WHERE id = $1`, id).
		Scan(&it.ID, &it.Title, &it.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read item %d: %w", id, err)
	}
	return &it, nil
}

// Update changes the title. The owner column is never rewritten.
func (r *PostgresRepository) Update(ctx context.Context, item *models.Item) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE item SET title = $1 WHERE id = $2`, item.Title, item.ID)
	if err != nil {
		return 0, fmt.Errorf("update item %d: %w", item.ID, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the item and returns the number of rows deleted.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM item WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete item %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
