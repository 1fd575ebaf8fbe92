// Package filter implements the listing grid filter and sort passes.
//
// Every constraint is optional and malformed numeric data never excludes a listing:
// a price, area or bedroom count that cannot be parsed passes the corresponding filter.
package filter

import (
	"math"
	"strings"

	"estateportal/server/internal/models"
)

// typeKeywords maps a property type filter to the title keywords that identify it
var typeKeywords = map[string][]string{
	"apartment":  {"apartment", "flat", "penthouse", "residence", "studio", "duplex"},
	"villa":      {"villa", "mansion"},
	"house":      {"house", "townhouse", "detached", "bungalow"},
	"commercial": {"commercial", "office", "shop", "retail", "store", "warehouse", "hotel"},
}

var typeAliases = map[string]string{
	"apartments":  "apartment",
	"flat":        "apartment",
	"flats":       "apartment",
	"villas":      "villa",
	"houses":      "house",
	"townhouse":   "house",
	"commercials": "commercial",
	"office":      "commercial",
}

// Apply returns the listings satisfying every constraint in spec, ordered by spec.SortBy.
// The input slice and its elements are left untouched.
func Apply(listings []models.Listing, spec models.FilterSpec) []models.Listing {
	facilities := normalizeFacilities(spec.Facilities)

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, spec, facilities) {
			out = append(out, l)
		}
	}

	Sort(out, spec.SortBy)
	return out
}

// Matches evaluates every predicate of spec against one listing. facilities must already be
// normalized; pass nil to use spec.Facilities.
func Matches(l models.Listing, spec models.FilterSpec, facilities []string) bool {
	if facilities == nil {
		facilities = normalizeFacilities(spec.Facilities)
	}

	return matchesType(l.Title, spec.PropertyType) &&
		matchesBedrooms(l.Bedrooms, spec.Bedrooms) &&
		containsFold(l.Location, spec.Location) &&
		(containsFold(l.Location, spec.District) || containsFold(l.Title, spec.District)) &&
		containsFold(l.RefNo, spec.RefNo) &&
		matchesPrice(l.Price, spec.MinPrice, spec.MaxPrice) &&
		matchesArea(l.Area, spec.MinArea, spec.MaxArea) &&
		matchesFacilities(l.Features, facilities)
}

func matchesType(title, propertyType string) bool {
	if isUnset(propertyType) {
		return true
	}

	t := strings.ToLower(strings.TrimSpace(propertyType))
	if alias, ok := typeAliases[t]; ok {
		t = alias
	}
	keywords, ok := typeKeywords[t]
	if !ok {
		keywords = []string{t}
	}

	lower := strings.ToLower(title)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// matchesBedrooms compares the leading integer of the listing's bedroom field.
// 5 means "5 or more". A ranged field ("1+1 <> 2+1") never matches a specific count;
// under 5+ it matches when any endpoint is at least 5.
func matchesBedrooms(bedrooms, want string) bool {
	if isUnset(want) {
		return true
	}
	n, ok := leadingInt(want)
	if !ok {
		return true
	}

	if isRange(bedrooms) {
		if n != 5 {
			return false
		}
		parsed := false
		for _, part := range strings.Split(bedrooms, RangeDelimiter) {
			v, ok := leadingInt(part)
			if !ok {
				continue
			}
			parsed = true
			if v >= 5 {
				return true
			}
		}
		return !parsed
	}

	v, ok := leadingInt(bedrooms)
	if !ok {
		return true
	}
	if n == 5 {
		return v >= 5
	}
	return v == n
}

func containsFold(field, want string) bool {
	want = strings.TrimSpace(want)
	if isUnset(want) {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(want))
}

func matchesPrice(price, minPrice, maxPrice string) bool {
	p, ok := digitsValue(price)
	if !ok {
		return true
	}
	if lo, ok := digitsValue(minPrice); ok && p < lo {
		return false
	}
	if hi, ok := digitsValue(maxPrice); ok && p > hi {
		return false
	}
	return true
}

// matchesArea passes when the listing's own area range intersects the requested one
func matchesArea(area, minArea, maxArea string) bool {
	if isUnset(minArea) && isUnset(maxArea) {
		return true
	}
	lo, hi, ok := parseRange(area)
	if !ok {
		return true
	}

	reqLo, reqHi := 0.0, math.Inf(1)
	if v, ok := firstNumber(minArea); ok {
		reqLo = v
	}
	if v, ok := firstNumber(maxArea); ok {
		reqHi = v
	}
	return hi >= reqLo && lo <= reqHi
}

// matchesFacilities requires every facility to occur in at least one feature
func matchesFacilities(features, facilities []string) bool {
	for _, want := range facilities {
		found := false
		for _, f := range features {
			if strings.Contains(strings.ToLower(f), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func normalizeFacilities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
