package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/datatypes"
)

// Property is a persisted listing row
type Property struct {
	ID             int64                       `json:"id" gorm:"primaryKey"`
	RefNo          *string                     `json:"ref_no" gorm:"index"`
	Title          string                      `json:"title" gorm:"not null"`
	Location       string                      `json:"location"`
	Price          string                      `json:"price"`
	Bedrooms       string                      `json:"bedrooms"`
	Bathrooms      string                      `json:"bathrooms"`
	SizesM2        string                      `json:"sizes_m2" gorm:"column:sizes_m2"`
	Status         string                      `json:"status"`
	PropertyImage  string                      `json:"property_image"`
	PropertyImages datatypes.JSONSlice[string] `json:"property_images"`
	Features       datatypes.JSONSlice[string] `json:"features"`
	Description    string                      `json:"description"`
	Latitude       *float64                    `json:"latitude"`
	Longitude      *float64                    `json:"longitude"`
	IsActive       bool                        `json:"is_active" gorm:"index"`
	CreatedAt      time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time                   `json:"updated_at"`

	// Unique once set; rows without a slug are not reachable by URL
	Slug   string `json:"slug" gorm:"uniqueIndex:idx_properties_slug_unique,where:slug <> ''"`
	SlugTR string `json:"slug_tr" gorm:"column:slug_tr;index"`
	SlugDE string `json:"slug_de" gorm:"column:slug_de;index"`
	SlugRU string `json:"slug_ru" gorm:"column:slug_ru;index"`
	SlugFR string `json:"slug_fr" gorm:"column:slug_fr;index"`
	SlugAR string `json:"slug_ar" gorm:"column:slug_ar;index"`
	SlugNL string `json:"slug_nl" gorm:"column:slug_nl;index"`
}

func (Property) TableName() string {
	return "properties"
}

// RefNoValue returns the reference number or an empty string
func (p *Property) RefNoValue() string {
	if p.RefNo == nil {
		return ""
	}
	return *p.RefNo
}

// SlugColumn returns the column holding the slug for lang. The default language maps to "slug".
func SlugColumn(lang string) string {
	if lang == "" || lang == "en" {
		return "slug"
	}
	return "slug_" + lang
}

// SlugFor returns the localized slug, or "" when the language has none
func (p *Property) SlugFor(lang string) string {
	switch lang {
	case "", "en":
		return p.Slug
	case "tr":
		return p.SlugTR
	case "de":
		return p.SlugDE
	case "ru":
		return p.SlugRU
	case "fr":
		return p.SlugFR
	case "ar":
		return p.SlugAR
	case "nl":
		return p.SlugNL
	}
	return ""
}

// SetSlug stores a localized slug. Unknown languages are ignored and reported as false.
func (p *Property) SetSlug(lang, slug string) bool {
	switch lang {
	case "", "en":
		p.Slug = slug
	case "tr":
		p.SlugTR = slug
	case "de":
		p.SlugDE = slug
	case "ru":
		p.SlugRU = slug
	case "fr":
		p.SlugFR = slug
	case "ar":
		p.SlugAR = slug
	case "nl":
		p.SlugNL = slug
	default:
		return false
	}
	return true
}

// LocalizedSlug falls back to the base slug when no translation exists
func (p *Property) LocalizedSlug(lang string) string {
	if s := p.SlugFor(lang); s != "" {
		return s
	}
	return p.Slug
}

// Coordinates returns the stored position as an orb point, or false when unset
func (p *Property) Coordinates() (orb.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// Listing converts the row into the view used by the filter engine
func (p *Property) Listing() Listing {
	l := Listing{
		ID:       ListingID(strconv.FormatInt(p.ID, 10)),
		RefNo:    p.RefNoValue(),
		Title:    p.Title,
		Location: p.Location,
		Price:    p.Price,
		Bedrooms: p.Bedrooms,
		Area:     p.SizesM2,
		Status:   p.Status,
		Features: append([]string(nil), p.Features...),
		Slug:     p.Slug,
		Image:    p.PropertyImage,
	}
	if pt, ok := p.Coordinates(); ok {
		l.Coordinates = pt
	}
	return l
}

// InsertionOutcome records what happened to an admin insertion attempt
type InsertionOutcome string

const (
	OutcomeInserted         InsertionOutcome = "inserted"
	OutcomeBlockedDuplicate InsertionOutcome = "blocked_duplicate"
	OutcomeForced           InsertionOutcome = "forced"
	OutcomeFailed           InsertionOutcome = "failed"
)

// InsertionLog is an audit row for property insertion monitoring
type InsertionLog struct {
	ID             string           `json:"id" gorm:"primaryKey;size:36"`
	PropertyID     *int64           `json:"property_id"`
	RefNo          string           `json:"ref_no"`
	Title          string           `json:"title"`
	Location       string           `json:"location"`
	Outcome        InsertionOutcome `json:"outcome" gorm:"index"`
	DuplicateCount int              `json:"duplicate_count"`
	Detail         string           `json:"detail"`
	CreatedAt      time.Time        `json:"created_at" gorm:"index"`
}

func (InsertionLog) TableName() string {
	return "property_insertion_log"
}

// NormalizeKey lowercases and trims a natural key component
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
