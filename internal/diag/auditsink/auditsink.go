// Package auditsink appends a durable record of container lifecycle events
// (launch, scope creation, scope destruction) to Postgres, connecting
// and verifying with a ping before first use, fronted by sqlx for the one
// query this package needs.
package auditsink

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds the Postgres connection string and table name.
type Config struct {
	DSN   string
	Table string
}

// Sink appends one row per event. It never reads its own table back; reading
// history is left to whatever external tool queries Postgres directly.
type Sink struct {
	db    *sqlx.DB
	table string
}

// Connect opens the Postgres connection, verifies it with a Ping, and
// ensures the audit table exists.
func Connect(cfg Config) (*Sink, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("auditsink: connect: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = "di_audit_log"
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		event TEXT NOT NULL,
		key TEXT NOT NULL,
		detail TEXT NOT NULL
	)`, table)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("auditsink: ensure schema: %w", err)
	}

	return &Sink{db: db, table: table}, nil
}

// Record appends one audit row.
func (s *Sink) Record(ctx context.Context, event, key, detail string) error {
	query := fmt.Sprintf(`INSERT INTO %s (occurred_at, event, key, detail) VALUES ($1, $2, $3, $4)`, s.table)
	_, err := s.db.ExecContext(ctx, query, time.Now(), event, key, detail)
	if err != nil {
		return fmt.Errorf("auditsink: insert: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}
