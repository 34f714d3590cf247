package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/models"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Topic{},
		&models.Script{},
		&models.ScriptTopic{},
		&models.ActivityLog{},
		&models.ProjectFile{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
