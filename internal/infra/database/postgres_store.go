package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Entry TTL policy: every write and every explicit extension pushes expiry out
// to the one-year horizon; ExtendTTL only touches rows whose remaining TTL has
// dropped below the threshold, so hot records are not rewritten on every read.
const (
	ttlHorizon         = 365 * 24 * time.Hour
	ttlExtendThreshold = 30 * 24 * time.Hour
)

// PostgresStore implements ledger.Store over the ledger_entries table. Values
// are stored as JSONB; rows past their expires_at read as absent.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Has(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE key = $1 AND expires_at > NOW())`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking entry %q: %w", key, err)
	}
	return exists, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string, out any) (bool, error) {
	query := `SELECT value FROM ledger_entries WHERE key = $1 AND expires_at > NOW()`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error reading entry %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("error decoding entry %q: %w", key, err)
	}
	return true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding entry %q: %w", key, err)
	}

	query := `INSERT INTO ledger_entries (key, value, expires_at)
               VALUES ($1, $2, NOW() + $3::interval)
               ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`
	if _, err := s.db.ExecContext(ctx, query, key, raw, intervalArg(ttlHorizon)); err != nil {
		return fmt.Errorf("error writing entry %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("error removing entry %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) ExtendTTL(ctx context.Context, key string) error {
	query := `UPDATE ledger_entries
               SET expires_at = NOW() + $2::interval
               WHERE key = $1 AND expires_at < NOW() + $3::interval`
	if _, err := s.db.ExecContext(ctx, query, key, intervalArg(ttlHorizon), intervalArg(ttlExtendThreshold)); err != nil {
		return fmt.Errorf("error extending entry %q: %w", key, err)
	}
	return nil
}

func intervalArg(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
