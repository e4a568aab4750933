package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/juryrank/internal/domain/model"

	_ "github.com/lib/pq"
)

const createDocumentsPostgres = `
CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore keeps the state document in a jsonb column.
type PostgresStore struct {
	db  *sql.DB
	key string
}

// NewPostgresStore connects with dsn and creates the documents table.
func NewPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDocumentsPostgres); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: create tables: %w", err)
	}
	return &PostgresStore{db: db, key: key}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (model.State, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE key = $1", p.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.State{}, ErrEmpty
	}
	if err != nil {
		return model.State{}, fmt.Errorf("repository: select document: %w", err)
	}
	return decodeState(body)
}

func (p *PostgresStore) Save(ctx context.Context, state model.State) error {
	b, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO documents (key, body, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		p.key, string(b))
	if err != nil {
		return fmt.Errorf("repository: upsert document: %w", err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresStore) Close() error { return p.db.Close() }
