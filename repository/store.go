// Package repository defines the persistence ports consumed by the
// auth service. Adapters live in the subpackages; the service never
// talks to a database driver directly.
package repository

import (
	"context"
	"errors"

	"github.com/authgate/authgate/domain"
)

var (
	// ErrNotFound is returned when a query matches no document.
	ErrNotFound = errors.New("not found")
	// ErrNotConnected is returned when a store is used or closed
	// before a successful Connect.
	ErrNotConnected = errors.New("store connection not established")
)

// UserRepository reads users from the external user collection. The
// library never creates, updates, or deletes users.
type UserRepository interface {
	FindByField(ctx context.Context, field, value string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenRepository persists issued access tokens. The delete methods
// report how many records were removed.
type TokenRepository interface {
	Insert(ctx context.Context, token *domain.AccessToken) (*domain.AccessToken, error)
	FindByToken(ctx context.Context, token string) (*domain.AccessToken, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Store bundles the repositories with an explicit connection
// lifecycle. Connect must complete before any repository call;
// operations on an unconnected store fail with ErrNotConnected.
type Store interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Users() UserRepository
	Tokens() TokenRepository
}
