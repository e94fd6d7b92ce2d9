package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/repository"
)

// UserRepository reads user rows. Attributes are stored as a JSON
// object in the fields column so the login field stays configurable.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) FindByField(ctx context.Context, field, value string) (*domain.User, error) {
	db, err := r.store.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
SELECT id, fields
FROM users
WHERE json_extract(fields, '$.' || ?) = ?`,
		field, value,
	)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	db, err := r.store.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
SELECT id, fields
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user   domain.User
		fields []byte
	)
	if err := row.Scan(&user.ID, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal(fields, &user.Fields); err != nil {
		return nil, fmt.Errorf("decode user fields: %w", err)
	}
	return &user, nil
}
