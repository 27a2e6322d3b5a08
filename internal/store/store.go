package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"click-client/internal/models"
)

// ErrNoSession is returned by Load when no identity has been persisted yet.
var ErrNoSession = errors.New("no persisted session")

// Store persists the session boundary record: the identity and bearer
// credential written by the login flow and consumed at startup. The file
// holds at most one row.
type Store struct {
	db *sqlx.DB
}

// Open initializes the session database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS session (
        user_id TEXT NOT NULL,
        username TEXT NOT NULL,
        credential TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}

	return &Store{db: db}, nil
}

type sessionRow struct {
	UserID     string `db:"user_id"`
	Username   string `db:"username"`
	Credential string `db:"credential"`
}

// Load reads the persisted identity and credential.
func (s *Store) Load(ctx context.Context) (models.Identity, string, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT user_id, username, credential FROM session LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, "", ErrNoSession
	}
	if err != nil {
		return models.Identity{}, "", err
	}
	return models.Identity{ID: row.UserID, Username: row.Username}, row.Credential, nil
}

// Save replaces the persisted session record wholesale.
func (s *Store) Save(ctx context.Context, identity models.Identity, credential string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO session (user_id, username, credential) VALUES ($1, $2, $3)`,
		identity.ID, identity.Username, credential); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Clear removes the persisted session record, ending the session across
// restarts.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
