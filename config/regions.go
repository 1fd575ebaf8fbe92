package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Region is a market the agency sells in
type Region struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	CountryCode string `json:"country_code"`

	// Center is [lat, lng], used for the map and as the coordinate placeholder
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`

	// Bounds is [minLat, minLng, maxLat, maxLng]
	Bounds []float64 `json:"bounds"`

	// Cities and districts that identify the region in free text
	Cities []string `json:"cities"`
}

// RegionsConfig is the JSON layout of REGIONS_FILE
type RegionsConfig struct {
	Regions []Region `json:"regions"`
}

var defaultRegions = []Region{
	{
		Name:        "Turkey",
		Slug:        "turkey",
		CountryCode: "tr",
		Center:      []float64{36.8969, 30.7133},
		ZoomLevel:   7,
		Bounds:      []float64{35.8, 25.6, 42.2, 44.9},
		Cities:      []string{"Antalya", "Alanya", "Istanbul", "Mersin", "Bodrum", "Fethiye", "Kas", "Kemer", "Belek", "Side", "Izmir", "Bursa"},
	},
	{
		Name:        "Dubai",
		Slug:        "dubai",
		CountryCode: "ae",
		Center:      []float64{25.2048, 55.2708},
		ZoomLevel:   11,
		Bounds:      []float64{24.6, 54.8, 25.4, 55.7},
		Cities:      []string{"Dubai Marina", "Downtown", "Palm Jumeirah", "Business Bay", "JVC", "Dubai Hills", "Jumeirah"},
	},
	{
		Name:        "Cyprus",
		Slug:        "cyprus",
		CountryCode: "cy",
		Center:      []float64{35.1264, 33.4299},
		ZoomLevel:   9,
		Bounds:      []float64{34.5, 32.2, 35.8, 34.7},
		Cities:      []string{"Kyrenia", "Girne", "Famagusta", "Iskele", "Nicosia", "Lefkosa", "Limassol", "Larnaca", "Paphos"},
	},
	{
		Name:        "France",
		Slug:        "france",
		CountryCode: "fr",
		Center:      []float64{43.7102, 7.2620},
		ZoomLevel:   8,
		Bounds:      []float64{41.3, -5.2, 51.1, 9.6},
		Cities:      []string{"Nice", "Cannes", "Antibes", "Paris", "Saint-Tropez", "Menton", "Monaco"},
	},
	{
		Name:        "Bali",
		Slug:        "bali",
		CountryCode: "id",
		Center:      []float64{-8.4095, 115.1889},
		ZoomLevel:   10,
		Bounds:      []float64{-8.9, 114.4, -8.0, 115.8},
		Cities:      []string{"Ubud", "Canggu", "Seminyak", "Uluwatu", "Sanur", "Kuta", "Jimbaran"},
	},
}

var (
	regions     = defaultRegions
	regionsLock sync.RWMutex
)

// LoadRegions replaces the built-in regions with the contents of a JSON file
func LoadRegions(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read regions file: %w", err)
	}

	var parsed RegionsConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse regions file: %w", err)
	}
	if len(parsed.Regions) == 0 {
		return fmt.Errorf("regions file %s defines no regions", path)
	}
	for _, r := range parsed.Regions {
		if len(r.Center) != 2 {
			return fmt.Errorf("region %q: center must be [lat, lng]", r.Name)
		}
		if len(r.Bounds) != 0 && len(r.Bounds) != 4 {
			return fmt.Errorf("region %q: bounds must be [minLat, minLng, maxLat, maxLng]", r.Name)
		}
	}

	regionsLock.Lock()
	regions = parsed.Regions
	regionsLock.Unlock()
	return nil
}

// ResetRegions restores the built-in regions
func ResetRegions() {
	regionsLock.Lock()
	regions = defaultRegions
	regionsLock.Unlock()
}

// GetRegions returns a copy of the configured regions
func GetRegions() []Region {
	regionsLock.RLock()
	defer regionsLock.RUnlock()

	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// GetRegionBySlug returns a region by slug, or nil
func GetRegionBySlug(slug string) *Region {
	for _, r := range GetRegions() {
		if r.Slug == strings.ToLower(slug) {
			return &r
		}
	}
	return nil
}

// Cities that are also everyday words only match with their capitalization
var caseSensitiveCities = map[string]bool{"Nice": true, "Side": true, "Kas": true}

// MatchRegion finds the region whose name or one of whose cities occurs in text as a
// whole word. The returned term is the matched name as configured.
func MatchRegion(text string) (*Region, string) {
	lower := strings.ToLower(text)
	all := GetRegions()

	// Cities first so "Dubai Marina" wins over "Dubai"
	for _, r := range all {
		for _, city := range r.Cities {
			var matched bool
			if caseSensitiveCities[city] {
				matched = containsWord(text, city)
			} else {
				matched = containsWord(lower, strings.ToLower(city))
			}
			if matched {
				r := r
				return &r, city
			}
		}
	}
	for _, r := range all {
		if containsWord(lower, strings.ToLower(r.Name)) {
			r := r
			return &r, r.Name
		}
	}
	return nil, ""
}

func containsWord(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		if (idx == 0 || !isWordByte(text[idx-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}
