package geometry

import (
	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"estateportal/server/config"
	"estateportal/server/internal/models"
)

// DefaultClusterPrecision groups listings into geohash cells of roughly 5 km
const DefaultClusterPrecision uint = 5

// MapCollection builds the map layer: one point feature per listing and, per region with at
// least three distinct real positions, a polygon outlining the covered area.
// Listings with placeholder coordinates are placed at their region center and flagged.
func MapCollection(listings []models.Listing, precision uint) *geojson.FeatureCollection {
	if precision == 0 || precision > 12 {
		precision = DefaultClusterPrecision
	}

	fc := geojson.NewFeatureCollection()
	coverage := make(map[string][]orb.Point)

	for _, l := range listings {
		pt := l.Coordinates
		placeholder := IsPlaceholder(pt)

		region := RegionFor(pt)
		if region == nil || placeholder {
			if r, _ := config.MatchRegion(l.Location); r != nil {
				region = r
			}
		}
		if placeholder {
			if region == nil {
				continue
			}
			pt = RegionCenter(*region)
		}

		f := geojson.NewFeature(pt)
		f.ID = string(l.ID)
		f.Properties = geojson.Properties{
			"id":          string(l.ID),
			"title":       l.Title,
			"price":       l.Price,
			"bedrooms":    l.Bedrooms,
			"slug":        l.Slug,
			"image":       l.Image,
			"placeholder": placeholder,
			"cluster":     geohash.EncodeWithPrecision(pt[1], pt[0], precision),
		}
		if region != nil {
			f.Properties["region"] = region.Slug
			if !placeholder {
				coverage[region.Slug] = append(coverage[region.Slug], pt)
			}
		}
		fc.Append(f)
	}

	for _, r := range config.GetRegions() {
		points := coverage[r.Slug]
		hull := convexHull(points)
		if hull == nil {
			continue
		}
		f := geojson.NewFeature(orb.Polygon{hull})
		f.Properties = geojson.Properties{
			"kind":     "coverage",
			"region":   r.Slug,
			"name":     r.Name,
			"listings": len(points),
		}
		fc.Append(f)
	}

	return fc
}
