package geometry

import (
	"math"

	"github.com/paulmach/orb"

	"estateportal/server/config"
)

// Coordinates closer than this to a region center are treated as the center itself
const placeholderEpsilon = 1e-6

// RegionBound converts a region's [minLat, minLng, maxLat, maxLng] bounds to an orb.Bound
func RegionBound(r config.Region) (orb.Bound, bool) {
	if len(r.Bounds) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{r.Bounds[1], r.Bounds[0]},
		Max: orb.Point{r.Bounds[3], r.Bounds[2]},
	}, true
}

// RegionCenter returns the region center as an orb point
func RegionCenter(r config.Region) orb.Point {
	if len(r.Center) != 2 {
		return orb.Point{}
	}
	return orb.Point{r.Center[1], r.Center[0]}
}

// RegionFor returns the first configured region whose bounds contain pt
func RegionFor(pt orb.Point) *config.Region {
	for _, r := range config.GetRegions() {
		b, ok := RegionBound(r)
		if ok && b.Contains(pt) {
			r := r
			return &r
		}
	}
	return nil
}

// IsPlaceholder reports whether pt is a default rather than a geocoded position:
// the zero point or exactly a region's map center.
func IsPlaceholder(pt orb.Point) bool {
	if pt == (orb.Point{}) {
		return true
	}
	for _, r := range config.GetRegions() {
		c := RegionCenter(r)
		if math.Abs(c[0]-pt[0]) < placeholderEpsilon && math.Abs(c[1]-pt[1]) < placeholderEpsilon {
			return true
		}
	}
	return false
}
