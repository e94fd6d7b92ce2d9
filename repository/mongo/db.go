// Package mongo implements the repository ports on MongoDB using the
// official driver. Users and tokens live in two collections named by
// configuration.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/authgate/authgate/repository"
)

// Options name the deployment and the two collections used by the store.
type Options struct {
	URI              string
	Database         string
	UsersCollection  string
	TokensCollection string
}

// Store is a MongoDB-backed repository.Store. Create one with
// NewStore and call Connect before use.
type Store struct {
	opts Options

	client *mongo.Client
	db     *mongo.Database
}

func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// Connect establishes the client connection and verifies it with a ping.
func (s *Store) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.opts.URI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	s.client = client
	s.db = client.Database(s.opts.Database)
	return nil
}

// Disconnect closes the client. Calling it without a prior successful
// Connect fails with repository.ErrNotConnected.
func (s *Store) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return repository.ErrNotConnected
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	s.client = nil
	s.db = nil
	return nil
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Tokens() repository.TokenRepository {
	return &TokenRepository{store: s}
}

func (s *Store) users() (*mongo.Collection, error) {
	if s.db == nil {
		return nil, repository.ErrNotConnected
	}
	return s.db.Collection(s.opts.UsersCollection), nil
}

func (s *Store) tokens() (*mongo.Collection, error) {
	if s.db == nil {
		return nil, repository.ErrNotConnected
	}
	return s.db.Collection(s.opts.TokensCollection), nil
}
