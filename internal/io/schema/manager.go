// Package schema implements the firedb.SchemaManager contract. This is
// an impure I/O package that wraps GORM AutoMigrate plus the PostGIS
// pieces AutoMigrate cannot express (the extension and the GiST spatial
// index).
package schema

import (
	"context"
	"fmt"

	"github.com/geoinfo/firedb/pkg/config"
	"github.com/geoinfo/firedb/pkg/firedb"
	"github.com/geoinfo/firedb/pkg/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Manager implements the SchemaManager interface using GORM
// AutoMigrate.
type Manager struct {
	cfg *config.Config
}

// NewManager creates a new SchemaManager.
func NewManager(cfg *config.Config) firedb.SchemaManager {
	return &Manager{cfg: cfg}
}

// Create ensures the postgis extension, the observations table, the
// (observation_date, location) uniqueness constraint and the spatial
// index exist. Safe to run repeatedly.
func (m *Manager) Create(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		m.cfg.Database.Host,
		m.cfg.Database.Port,
		m.cfg.Database.User,
		m.cfg.Database.Password,
		m.cfg.Database.Database,
		m.cfg.Database.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect with GORM: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	db = db.WithContext(ctx)

	// The geography column type requires postgis before AutoMigrate.
	if err := db.Exec(
		"CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("failed to create postgis extension: %w", err)
	}

	if err := schema.Migrate(db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// GiST index for the bounding-box and radius read queries.
	spatialIdx := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_location ON %s USING GIST (location)",
		schema.Observation{}.TableName(), schema.Observation{}.TableName())
	if err := db.Exec(spatialIdx).Error; err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	return nil
}
