// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"churn-workers/internal/common/config"
)

// Schema creates the tables the churn workers read and write. Client rows are
// owned by the CRM side; the workers only ever read them.
const Schema = `
CREATE TABLE IF NOT EXISTS clients (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	phone             TEXT NOT NULL DEFAULT '',
	gender            TEXT NOT NULL,
	senior_citizen    INTEGER NOT NULL,
	partner           TEXT NOT NULL,
	dependents        TEXT NOT NULL,
	tenure            INTEGER NOT NULL,
	phone_service     TEXT NOT NULL,
	multiple_lines    TEXT NOT NULL,
	internet_service  TEXT NOT NULL,
	online_security   TEXT NOT NULL,
	online_backup     TEXT NOT NULL,
	device_protection TEXT NOT NULL,
	tech_support      TEXT NOT NULL,
	streaming_tv      TEXT NOT NULL,
	streaming_movies  TEXT NOT NULL,
	contract          TEXT NOT NULL,
	paperless_billing TEXT NOT NULL,
	payment_method    TEXT NOT NULL,
	monthly_charges   DOUBLE PRECISION NOT NULL,
	total_charges     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS churn_predictions (
	id            UUID PRIMARY KEY,
	client_id     TEXT NOT NULL REFERENCES clients(id),
	prediction    JSONB NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS churn_predictions_client_idx ON churn_predictions (client_id, created_at DESC);

CREATE TABLE IF NOT EXISTS retention_alerts (
	id            UUID PRIMARY KEY,
	prediction_id UUID NOT NULL,
	client_id     TEXT NOT NULL,
	channel       TEXT NOT NULL,
	recipient     TEXT NOT NULL,
	sent_at       TIMESTAMPTZ NOT NULL
);
`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema applies Schema. Every statement is idempotent.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
