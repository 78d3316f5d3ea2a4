// Package database implements db.Operator using pgxpool. This is an
// impure I/O package that implements contracts defined in pkg/.
package database

import (
	"context"
	"fmt"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxOperator implements db.Operator using pgxpool for connection
// pooling.
type pgxOperator struct {
	pool *pgxpool.Pool
}

// NewPgxOperator creates a new database operator (without connecting).
func NewPgxOperator() db.Operator {
	return &pgxOperator{}
}

// Connect establishes a connection pool to PostgreSQL. Uses sensible
// hardcoded pool settings that work well for a single-run batch job.
func (p *pgxOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return connectionError(cfg, err)
	}

	// The pipeline is single-process; a handful of connections covers
	// batch inserts plus the occasional statistics query.
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return connectionError(cfg, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return connectionError(cfg, err)
	}

	p.pool = pool
	return nil
}

// Close releases all database connections.
func (p *pgxOperator) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Pool returns the underlying pgxpool.Pool for specialized SQL.
func (p *pgxOperator) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping verifies the connection is alive.
func (p *pgxOperator) Ping(ctx context.Context) error {
	if p.pool == nil {
		return errNotConnected
	}
	return p.pool.Ping(ctx)
}

// TableExists checks if a table exists in the public schema.
func (p *pgxOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, errNotConnected
	}

	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`

	var exists bool
	err := p.pool.QueryRow(ctx, query, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf(
			"failed to check table %s: %w", tableName, err)
	}

	return exists, nil
}
