package database

import (
	"fmt"

	"estateportal/server/internal/models"
)

func (d *Database) RunMigrations() error {
	if err := d.dedupeSlugs(); err != nil {
		return err
	}

	if err := d.db.AutoMigrate(
		&models.Property{},
		&models.InsertionLog{},
		&models.BlogPost{},
		&models.Testimonial{},
		&models.TeamMember{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Create spatial index on coordinates
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude)
	`).Error; err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	return nil
}

// dedupeSlugs suffixes repeated base slugs with the row id so the unique slug index can be built.
// The lowest id keeps the plain slug.
func (d *Database) dedupeSlugs() error {
	if !d.db.Migrator().HasTable(&models.Property{}) {
		return nil
	}

	result := d.db.Exec(`
		UPDATE properties SET slug = slug || '-' || CAST(id AS TEXT)
		WHERE slug <> '' AND id NOT IN (
			SELECT MIN(id) FROM properties WHERE slug <> '' GROUP BY slug
		)
	`)
	if result.Error != nil {
		return fmt.Errorf("failed to dedupe property slugs: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		d.logger.WithField("rows", result.RowsAffected).Warn("Renamed duplicate property slugs")
	}
	return nil
}
