package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/user/starter-go/db"
	"github.com/user/starter-go/models"
)

// Repository is the user storage contract. Reads return (nil, nil) when no
// row matches. Update and Delete return the affected row count, 0 for a
// missing id.
type Repository interface {
	Create(ctx context.Context, u *models.User) (int64, error)
	ReadAll(ctx context.Context) ([]models.User, error)
	ReadByID(ctx context.Context, id int64) (*models.User, error)
	ReadByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// PostgresRepository stores users in the `"user"` table.
// The table name is a reserved word in PostgreSQL, hence the quoting.
type PostgresRepository struct {
	db db.Querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a repository running its queries on q,
// usually a *pgxpool.Pool.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{db: q}
}

// Create inserts u and returns the generated id. u.PasswordHash must
// already be hashed.
func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO "user" (email, password) VALUES ($1, $2) RETURNING id`,
		u.Email, u.PasswordHash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// ReadAll lists every user ordered by id. The password column is not read.
func (r *PostgresRepository) ReadAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email FROM "user" ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// ReadByID returns the user with the given id, hash included.
func (r *PostgresRepository) ReadByID(ctx context.Context, id int64) (*models.User, error) {
	return r.readOne(ctx, `SELECT id, email, password FROM "user" WHERE id = $1`, id)
}

// ReadByEmail returns the user with the given email, hash included.
func (r *PostgresRepository) ReadByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.readOne(ctx, `SELECT id, email, password FROM "user" WHERE email = $1`, email)
}

func (r *PostgresRepository) readOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	return &u, nil
}

// Update overwrites email and password hash of the user with u.ID.
func (r *PostgresRepository) Update(ctx context.Context, u *models.User) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE "user" SET email = $1, password = $2 WHERE id = $3`,
		u.Email, u.PasswordHash, u.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the user. Their items go with them (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
