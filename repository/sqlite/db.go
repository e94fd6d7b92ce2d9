// Package sqlite implements the repository ports on an embedded
// sqlite database, useful for development and single-node
// deployments. User documents keep their dynamic shape in a JSON
// column queried with json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/authgate/authgate/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	fields TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	token TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens (user_id);
`

// Store is a sqlite-backed repository.Store. Create one with NewStore
// and call Connect before use.
type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Connect opens (or creates) the database file and ensures the schema.
func (s *Store) Connect(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer; also keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("init schema: %w", err)
	}

	s.db = db
	return nil
}

// Disconnect closes the database. Calling it without a prior
// successful Connect fails with repository.ErrNotConnected.
func (s *Store) Disconnect(_ context.Context) error {
	if s.db == nil {
		return repository.ErrNotConnected
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	s.db = nil
	return nil
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Tokens() repository.TokenRepository {
	return &TokenRepository{store: s}
}

func (s *Store) handle() (*sql.DB, error) {
	if s.db == nil {
		return nil, repository.ErrNotConnected
	}
	return s.db, nil
}
