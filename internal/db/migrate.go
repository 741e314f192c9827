package db

import (
	"fmt"

	"github.com/zulandar/signalbox/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every archived GORM model.
func AllModels() []interface{} {
	return []interface{}{
		&models.AuditRecord{},
		&models.ScenarioRun{},
	}
}

// AutoMigrate creates or updates the archive tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
