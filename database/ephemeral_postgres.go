package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// StartEphemeralPostgres starts a throwaway postgres server and returns a ledger
// on a fresh database in it. Close stops the server and removes its data.
func StartEphemeralPostgres(ctx context.Context) (*BunDB, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	// Uses a temporary directory by default for simplicity
	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	dsn, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to create ledger database: %w", err)
	}
	Logger.Info("Created ephemeral database", "dsn", dsn)

	// postgrestest hands out lib/pq style DSNs, so the ephemeral ledger uses that driver
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ledger, err := newBunDB(ctx, sqlDB, pgdialect.New(), "ephemeral")
	if err != nil {
		pgt.Cleanup()
		return nil, err
	}
	ledger.cleanup = func() error {
		Logger.Info("Stopping ephemeral PostgreSQL server")
		pgt.Cleanup()
		return nil
	}
	return ledger, nil
}
