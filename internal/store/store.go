// Package store persists scans in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// ErrInvalidScan is returned when the database rejects a row on a constraint.
var ErrInvalidScan = errors.New("scan violates table constraints")

// ErrNotFound is returned by Get when no row has the requested id.
var ErrNotFound = errors.New("scan not found")

// DBTX is the subset of pgxpool.Pool used by Store.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const scanColumns = `id, scanned_at, original_url, final_url, is_safe, risk_score`

const createScan = `INSERT INTO scans (original_url, final_url, is_safe, risk_score)
VALUES ($1, $2, $3, $4)
RETURNING ` + scanColumns

const getScan = `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`

// Store encapsulates operations on the scans table.
type Store struct {
	db DBTX
}

// New creates a Store on db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Create inserts a scan. The insert runs outside any explicit transaction, so
// a nil error means the row is committed.
func (s *Store) Create(ctx context.Context, in scan.Input) (*scan.Scan, error) {
	row := s.db.QueryRow(ctx, createScan, in.OriginalURL, in.FinalURL, in.IsSafe, in.RiskScore)

	out, err := scanRow(row)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) {
			switch e.Code {
			case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
				return nil, fmt.Errorf("%w: %s", ErrInvalidScan, e.ConstraintName)
			}
		}
		return nil, fmt.Errorf("insert scan: %w", err)
	}
	return out, nil
}

// Get fetches a scan by id.
func (s *Store) Get(ctx context.Context, id int64) (*scan.Scan, error) {
	out, err := scanRow(s.db.QueryRow(ctx, getScan, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return out, nil
}

func scanRow(row pgx.Row) (*scan.Scan, error) {
	var out scan.Scan
	if err := row.Scan(&out.ID, &out.ScannedAt, &out.OriginalURL, &out.FinalURL, &out.IsSafe, &out.RiskScore); err != nil {
		return nil, err
	}
	out.ScannedAt = out.ScannedAt.UTC()
	return &out, nil
}
