package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/authgate/authgate/domain"
	"github.com/authgate/authgate/repository"
)

// TokenRepository persists access tokens in the tokens table.
type TokenRepository struct {
	store *Store
}

func (r *TokenRepository) Insert(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error) {
	db, err := r.store.handle()
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO tokens (id, user_id, token, created_at)
VALUES (?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.Token,
		token.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	stored := *token
	return &stored, nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	db, err := r.store.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
SELECT id, user_id, token, created_at
FROM tokens
WHERE token = ?`,
		token,
	)
	var record domain.AccessToken
	if err := row.Scan(&record.ID, &record.UserID, &record.Token, &record.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &record, nil
}

func (r *TokenRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	db, err := r.store.handle()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM tokens
WHERE user_id = ?`,
		userID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return count, nil
}

func (r *TokenRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	db, err := r.store.handle()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete token: %w", err)
	}
	return res.RowsAffected()
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	db, err := r.store.handle()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	return res.RowsAffected()
}
