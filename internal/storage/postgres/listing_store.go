// Package postgres mirrors harvested listings into a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
)

// DefaultTable receives listings when no table is configured.
const DefaultTable = "listings"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ListingStoreConfig controls the Postgres connection pool used for listing rows.
type ListingStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ListingStore writes one row per record, tagged with the run that produced it.
type ListingStore struct {
	pool     execCloser
	table    string
	runID    string
	now      func() time.Time
	borrowed bool
}

// NewListingStore creates a Postgres-backed ListingStore using the provided config.
func NewListingStore(ctx context.Context, cfg ListingStoreConfig, runID string) (*ListingStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("output.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ListingStore{pool: pool, table: table, runID: runID, now: time.Now}, nil
}

// NewListingStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewListingStoreWithPool(pool execCloser, table, runID string) (*ListingStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ListingStore{pool: pool, table: table, runID: runID, now: time.Now}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the listing table when it does not exist.
func (s *ListingStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	harvested_at TIMESTAMPTZ NOT NULL,
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	cv_count INTEGER,
	location TEXT,
	responsibilities TEXT,
	schedule TEXT,
	experience_years INTEGER,
	contract_type TEXT,
	salary_min INTEGER,
	salary_max INTEGER,
	description TEXT
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// WriteRow inserts a listing row. Absent numbers are stored as NULL.
func (s *ListingStore) WriteRow(ctx context.Context, rec listing.Record) error {
	if s == nil || s.pool == nil {
		return errors.New("listing store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	harvested_at,
	title,
	link,
	cv_count,
	location,
	responsibilities,
	schedule,
	experience_years,
	contract_type,
	salary_min,
	salary_max,
	description
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, s.table)

	args := []any{
		s.runID,
		s.now().UTC(),
		rec.Title,
		rec.Link,
		rec.CVCount,
		rec.Location,
		rec.Responsibilities,
		rec.Schedule,
		rec.Experience,
		rec.ContractType,
		rec.SalaryMin,
		rec.SalaryMax,
		rec.Description,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert listing %s: %w", rec.Link, err)
	}
	return nil
}

// ForRun returns a writer sharing s's pool that tags rows with runID. Closing
// it leaves the pool open.
func (s *ListingStore) ForRun(runID string) *ListingStore {
	clone := *s
	clone.runID = runID
	clone.borrowed = true
	return &clone
}

// Close releases the underlying pool resources.
func (s *ListingStore) Close() error {
	if s == nil || s.pool == nil || s.borrowed {
		return nil
	}
	s.pool.Close()
	return nil
}
