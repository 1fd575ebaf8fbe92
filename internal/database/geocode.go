package database

import (
	"context"
	"strings"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/geometry"
	"estateportal/server/internal/models"
)

// Geocoder resolves a free-text location within a country to a position
type Geocoder interface {
	Geocode(ctx context.Context, query, countryCode string) (lat, lng float64, err error)
}

// UpdatePlaceholderCoordinates geocodes every active row whose coordinates are missing or a
// placeholder. Rows that fail are counted and skipped; only ctx cancellation stops the pass.
func (d *Database) UpdatePlaceholderCoordinates(ctx context.Context, geocoder Geocoder) (models.GeocodeStats, error) {
	var stats models.GeocodeStats

	rows, err := d.ListActiveProperties(ctx)
	if err != nil {
		return stats, err
	}

	for _, p := range rows {
		if pt, ok := p.Coordinates(); ok && !geometry.IsPlaceholder(pt) {
			continue
		}
		stats.Candidates++

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		location := strings.TrimSpace(p.Location)
		region, _ := config.MatchRegion(location + " " + p.Title)
		if location == "" || region == nil {
			stats.Skipped++
			continue
		}

		query := location
		if !strings.Contains(strings.ToLower(location), strings.ToLower(region.Name)) {
			query += ", " + region.Name
		}

		lat, lng, err := geocoder.Geocode(ctx, query, region.CountryCode)
		if err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"property_id": p.ID,
				"query":       query,
			}).Error("Failed to geocode property")
			stats.Failed++
			continue
		}
		if geometry.IsPlaceholder(orb.Point{lng, lat}) {
			stats.Failed++
			continue
		}

		if err := d.db.WithContext(ctx).
			Model(&models.Property{ID: p.ID}).
			Updates(map[string]interface{}{"latitude": lat, "longitude": lng}).Error; err != nil {
			d.logger.WithError(err).WithField("property_id", p.ID).Error("Failed to update coordinates")
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	d.logger.WithFields(logrus.Fields{
		"candidates": stats.Candidates,
		"updated":    stats.Updated,
		"failed":     stats.Failed,
		"skipped":    stats.Skipped,
	}).Info("Coordinate repair completed")

	return stats, nil
}
