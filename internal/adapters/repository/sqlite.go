package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/juryrank/internal/domain/model"

	_ "modernc.org/sqlite"
)

const createDocumentsSQLite = `
CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore keeps the state document in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore opens the database at path and creates the documents table.
func NewSQLiteStore(ctx context.Context, path, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDocumentsSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: create tables: %w", err)
	}
	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (model.State, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE key = ?", s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.State{}, ErrEmpty
	}
	if err != nil {
		return model.State{}, fmt.Errorf("repository: select document: %w", err)
	}
	return decodeState([]byte(body))
}

func (s *SQLiteStore) Save(ctx context.Context, state model.State) error {
	b, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.key, string(b), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("repository: upsert document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }
