package db

import (
	"context"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator defines the interface for basic database management
// operations. It provides connection lifecycle management and exposes
// the pgxpool.Pool for the loader and schema manager to execute their
// specialized SQL internally.
//
// The interface stays minimal on purpose: bulk-insert SQL belongs to
// the loader, schema DDL to the schema manager; both reach the pool
// through Pool().
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(ctx context.Context, cfg *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool.
	Pool() *pgxpool.Pool

	// Ping verifies the connection is alive; used by check-only runs.
	Ping(ctx context.Context) error

	// TableExists checks if a table exists in the public schema.
	TableExists(ctx context.Context, tableName string) (bool, error)
}
