package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"estateportal/server/config"
	"estateportal/server/internal/models"
)

// untranslatedScope limits a query to active rows after afterID that miss a slug in any of langs.
// With force every active row qualifies.
func untranslatedScope(langs []string, force bool, afterID int64) (func(*gorm.DB) *gorm.DB, error) {
	var missing []string
	for _, lang := range langs {
		if !config.IsSupportedLanguage(lang) || lang == config.DefaultLanguage {
			return nil, fmt.Errorf("unsupported translation language %q", lang)
		}
		column := models.SlugColumn(lang)
		missing = append(missing, fmt.Sprintf("(%s IS NULL OR %s = '')", column, column))
	}

	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_active = ?", true).Where("id > ?", afterID)
		if !force && len(missing) > 0 {
			db = db.Where(strings.Join(missing, " OR "))
		}
		return db
	}, nil
}

func (d *Database) CountUntranslated(ctx context.Context, langs []string, force bool, afterID int64) (int64, error) {
	scope, err := untranslatedScope(langs, force, afterID)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Property{}).Scopes(scope).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count untranslated rows: %w", err)
	}
	return count, nil
}

// ListUntranslated returns up to limit rows in id order
func (d *Database) ListUntranslated(ctx context.Context, langs []string, limit int, force bool, afterID int64) ([]models.Property, error) {
	scope, err := untranslatedScope(langs, force, afterID)
	if err != nil {
		return nil, err
	}

	var rows []models.Property
	if err := d.db.WithContext(ctx).
		Scopes(scope).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list untranslated rows: %w", err)
	}
	return rows, nil
}

// SlugExists reports whether another row already uses slug for lang
func (d *Database) SlugExists(ctx context.Context, lang, slug string, excludeID int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Where(fmt.Sprintf("%s = ?", models.SlugColumn(lang)), slug).
		Where("id <> ?", excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// UpdateSlugs writes localized slugs keyed by language code
func (d *Database) UpdateSlugs(ctx context.Context, id int64, slugs map[string]string) error {
	if len(slugs) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(slugs))
	for lang, s := range slugs {
		if !config.IsSupportedLanguage(lang) {
			return fmt.Errorf("unsupported slug language %q", lang)
		}
		updates[models.SlugColumn(lang)] = s
	}

	result := d.db.WithContext(ctx).Model(&models.Property{ID: id}).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update slugs for %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
