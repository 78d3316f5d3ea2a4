package schema

import (
	"gorm.io/gorm"
)

// AllModels returns all schema models for GORM AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Observation{},
	}
}

// Migrate runs GORM AutoMigrate to create or update the schema.
// The postgis extension must already exist; the schema manager creates
// it before calling this.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
