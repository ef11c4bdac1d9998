package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspace_snapshots (
	workspace_id TEXT PRIMARY KEY,
	payload      JSONB NOT NULL,
	version      BIGINT NOT NULL DEFAULT 1,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing handle without pinging or migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate workspace_snapshots: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, workspaceID string) (domain.Snapshot, error) {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM workspace_snapshots
		WHERE workspace_id = $1
	`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}.Normalize(), nil
	}
	if err != nil {
		return domain.Snapshot{}, describe(err)
	}
	return store.Decode(payload)
}

func (s *Store) Save(ctx context.Context, workspaceID string, snapshot domain.Snapshot) error {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return err
	}
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspace_snapshots (workspace_id, payload, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (workspace_id)
		DO UPDATE SET payload = EXCLUDED.payload,
			version = workspace_snapshots.version + 1,
			updated_at = now()
	`, key, string(payload))
	if err != nil {
		return describe(err)
	}
	return nil
}

// Workspaces lists every workspace with a stored snapshot.
func (s *Store) Workspaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workspace_id
		FROM workspace_snapshots
		ORDER BY workspace_id
	`)
	if err != nil {
		return nil, describe(err)
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("workspace_snapshots table missing, run Migrate: %w", err)
	}
	return err
}
