package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_blobs (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps blobs in a single kv_blobs table.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the blob table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob dbBlob
	if err := s.db.GetContext(
		ctx,
		&blob,
		`SELECT key, value, expires_at FROM kv_blobs WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key,
		s.now().UTC(),
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return blob.Value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	blob := dbBlob{Key: key, Value: value}
	if ttl > 0 {
		expires := s.now().UTC().Add(ttl)
		blob.ExpiresAt = &expires
	}

	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO kv_blobs (key, value, expires_at, updated_at)
		 VALUES (:key, :value, :expires_at, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		blob,
	)

	return err
}

// Purge removes expired blobs.
func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv_blobs WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Row mapping for kv_blobs.
type dbBlob struct {
	Key       string     `db:"key"`
	Value     []byte     `db:"value"`
	ExpiresAt *time.Time `db:"expires_at"`
}
