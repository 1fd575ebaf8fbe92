package database

import (
	"context"
	"fmt"
	"strings"

	"estateportal/server/internal/models"
)

// Columns overwritten when a synced or edited record replaces an existing row.
// Localized slugs are left alone so a sync does not discard translations.
var propertyUpdateColumns = []string{
	"ref_no", "title", "location", "price", "bedrooms", "bathrooms", "sizes_m2", "status",
	"property_image", "property_images", "features", "description", "latitude", "longitude",
	"is_active", "updated_at",
}

// ListActiveProperties returns every active row ordered by id
func (d *Database) ListActiveProperties(ctx context.Context) ([]models.Property, error) {
	var rows []models.Property
	if err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active properties: %w", err)
	}
	return rows, nil
}

func (d *Database) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	if err := d.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// GetPropertyBySlug finds an active row by its localized slug, falling back to the base slug
func (d *Database) GetPropertyBySlug(ctx context.Context, lang, slug string) (*models.Property, error) {
	var p models.Property
	column := models.SlugColumn(lang)
	err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(fmt.Sprintf("(%s = ? OR slug = ?)", column), slug, slug).
		Order("id ASC").
		First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// FindByRefNo returns the row with the given reference number, or nil when there is none
func (d *Database) FindByRefNo(ctx context.Context, refNo string) (*models.Property, error) {
	var rows []models.Property
	if err := d.db.WithContext(ctx).
		Where("ref_no = ?", refNo).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query property %s: %w", refNo, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (d *Database) CreateProperty(ctx context.Context, p *models.Property) error {
	if err := d.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", translateError(err))
	}
	return nil
}

// UpdateProperty overwrites the mapped fields of an existing row, zero values included
func (d *Database) UpdateProperty(ctx context.Context, p *models.Property) error {
	columns := propertyUpdateColumns
	if p.Slug != "" {
		columns = append(append([]string(nil), columns...), "slug")
	}

	result := d.db.WithContext(ctx).
		Model(&models.Property{ID: p.ID}).
		Select(columns).
		Updates(p)
	if result.Error != nil {
		return fmt.Errorf("failed to update property %d: %w", p.ID, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListKeyed returns the natural key columns of every row whose key is set
func (d *Database) ListKeyed(ctx context.Context, key models.NaturalKey) ([]models.Property, error) {
	q := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("id", "ref_no", "title", "location", "created_at")

	switch key {
	case models.KeyRefNo:
		q = q.Where("ref_no IS NOT NULL AND ref_no <> ''")
	case models.KeyTitleLocation:
		q = q.Where("title IS NOT NULL AND title <> '' AND location IS NOT NULL AND location <> ''")
	default:
		return nil, fmt.Errorf("unsupported natural key %q", key)
	}

	var rows []models.Property
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list rows by %s: %w", key, err)
	}
	return rows, nil
}

// ListDuplicateGroup returns every row sharing member's natural key, earliest created first
func (d *Database) ListDuplicateGroup(ctx context.Context, key models.NaturalKey, member models.Property) ([]models.Property, error) {
	q := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("id", "ref_no", "title", "location", "created_at")

	switch key {
	case models.KeyRefNo:
		q = q.Where("ref_no = ?", member.RefNoValue())
	case models.KeyTitleLocation:
		q = q.Where("LOWER(TRIM(title)) = ? AND LOWER(TRIM(location)) = ?",
			models.NormalizeKey(member.Title), models.NormalizeKey(member.Location))
	default:
		return nil, fmt.Errorf("unsupported natural key %q", key)
	}

	var rows []models.Property
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch duplicate group: %w", err)
	}
	return rows, nil
}

// DeleteProperties removes the given rows in a single statement and returns the deleted count
func (d *Database) DeleteProperties(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := d.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Property{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete properties: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (d *Database) FindActiveByTitleLocation(ctx context.Context, title, location string) ([]models.Property, error) {
	var rows []models.Property
	if err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(TRIM(title)) = ? AND LOWER(TRIM(location)) = ?", models.NormalizeKey(title), models.NormalizeKey(location)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query by title and location: %w", err)
	}
	return rows, nil
}

func (d *Database) FindActiveByRefNo(ctx context.Context, refNo string) ([]models.Property, error) {
	var rows []models.Property
	if err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("ref_no = ?", strings.TrimSpace(refNo)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query by reference number: %w", err)
	}
	return rows, nil
}
