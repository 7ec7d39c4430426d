package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id           BIGSERIAL PRIMARY KEY,
	scanned_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	original_url TEXT NOT NULL,
	final_url    TEXT NOT NULL,
	is_safe      BOOLEAN NOT NULL,
	risk_score   INTEGER NOT NULL CHECK (risk_score BETWEEN 0 AND 100)
);
CREATE INDEX IF NOT EXISTS ix_scans_id ON scans (id);
`

// Migrate creates the scans table and its index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
