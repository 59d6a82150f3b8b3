// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the PostgreSQL table used by PostgresStore.
const DefaultTable = "analysis_ledger"

// PostgresStore keeps the ledger in a PostgreSQL table with the same columns
// as the CSV file. document_name carries no unique index: duplicates are
// rejected by Ledger.Register.
type PostgresStore struct {
	db    *pgxpool.Pool
	table string
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, table: DefaultTable}
}

// OpenPostgres connects to dsn, checks the connection and creates the table
// if needed. The caller owns the returned store and must Close it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the ledger table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                INTEGER PRIMARY KEY,
			date              TIMESTAMPTZ NOT NULL,
			document_name     TEXT NOT NULL,
			requirement_count INTEGER NOT NULL,
			status            TEXT NOT NULL,
			execution_time    TEXT NOT NULL,
			delivery_path     TEXT NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to create ledger table: %w", err)
	}
	return nil
}

// Load reads every entry ordered by id.
func (s *PostgresStore) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT id, date, document_name, requirement_count, status, execution_time, delivery_path
		FROM %s
		ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var elapsed string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.DocumentName, &e.RequirementCount, &e.Status, &elapsed, &e.DeliveryPath); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		if e.ExecutionTime, err = time.ParseDuration(elapsed); err != nil {
			return nil, fmt.Errorf("%w: execution time %q: %w", ErrInvalidEntry, elapsed, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, date, document_name, requirement_count, status, execution_time, delivery_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table),
		e.ID, e.Timestamp, e.DocumentName, e.RequirementCount, e.Status, e.ExecutionTime.String(), e.DeliveryPath)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}
