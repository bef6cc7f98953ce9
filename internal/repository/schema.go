package repository

import (
	"context"
	"fmt"
)

// Execer runs a statement without returning rows
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id              UUID PRIMARY KEY,
		title           TEXT NOT NULL,
		datetime        TIMESTAMPTZ NOT NULL,
		source          TEXT NOT NULL,
		original_url    TEXT NOT NULL UNIQUE,
		city            TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'new'
		                CHECK (status IN ('new', 'updated', 'imported', 'inactive')),
		last_scraped_at TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_datetime ON events (datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status ON events (status)`,
	// event_id has no foreign key: leads outlive the events they reference
	`CREATE TABLE IF NOT EXISTS leads (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL,
		consent    BOOLEAN NOT NULL,
		event_id   UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_event_id ON leads (event_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            UUID PRIMARY KEY,
		operator_id   TEXT,
		operator_role TEXT,
		action        TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT,
		status_code   INT NOT NULL,
		ip_address    TEXT,
		request_id    TEXT,
		trace_id      TEXT,
		metadata      JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC)`,
}

// EnsureSchema creates the tables this service needs when they are missing
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schemaStatements {
		if err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
