package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"lumeer-engine/internal/viewsettings"
)

// Migrate creates or updates the tables owned by the engine.
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	if err := db.AutoMigrate(&viewsettings.Record{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("database schema migrated successfully")
	return nil
}
