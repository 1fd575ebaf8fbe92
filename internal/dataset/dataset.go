// Package dataset holds the static property catalogue bundled with the server,
// used to seed and resync the properties table.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"estateportal/server/internal/models"
	"estateportal/server/internal/slug"
)

var ErrInvalidDataset = errors.New("invalid dataset")

//go:embed properties.json
var propertiesJSON []byte

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "dataset/schema.json"

// Record is one catalogue entry. Coordinates are [lat, lng].
type Record struct {
	ID          models.ListingID `json:"id"`
	RefNo       string           `json:"ref_no"`
	Title       string           `json:"title"`
	Location    string           `json:"location"`
	Price       string           `json:"price"`
	Bedrooms    string           `json:"bedrooms"`
	Bathrooms   string           `json:"bathrooms"`
	Area        string           `json:"area"`
	Status      string           `json:"status"`
	Image       string           `json:"image"`
	Images      []string         `json:"images"`
	Features    []string         `json:"features"`
	Description string           `json:"description"`
	Coordinates []float64        `json:"coordinates"`
}

// Load validates and decodes the bundled catalogue
func Load() ([]Record, error) {
	return Parse(propertiesJSON)
}

// Parse validates data against the catalogue schema and decodes it.
// Reference numbers must be unique since sync matches on them.
func Parse(data []byte) ([]Record, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add dataset schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dataset schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		key := models.NormalizeKey(r.RefNo)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate ref_no %q", ErrInvalidDataset, r.RefNo)
		}
		seen[key] = true
	}

	return records, nil
}

// ToProperty maps the record onto an active properties row
func (r Record) ToProperty() models.Property {
	refNo := strings.TrimSpace(r.RefNo)
	p := models.Property{
		RefNo:          &refNo,
		Title:          r.Title,
		Location:       r.Location,
		Price:          r.Price,
		Bedrooms:       r.Bedrooms,
		Bathrooms:      r.Bathrooms,
		SizesM2:        r.Area,
		Status:         r.Status,
		PropertyImage:  r.Image,
		PropertyImages: append([]string(nil), r.Images...),
		Features:       append([]string(nil), r.Features...),
		Description:    r.Description,
		IsActive:       true,
		Slug:           slug.WithSuffix(slug.Make(r.Title), refNo),
	}
	if len(r.Coordinates) == 2 {
		lat, lng := r.Coordinates[0], r.Coordinates[1]
		p.Latitude = &lat
		p.Longitude = &lng
	}
	return p
}

// ToListing returns the filter engine view, keeping the catalogue id
func (r Record) ToListing() models.Listing {
	p := r.ToProperty()
	l := p.Listing()
	l.ID = r.ID
	return l
}

// Properties maps every record with ToProperty
func Properties(records []Record) []models.Property {
	out := make([]models.Property, len(records))
	for i, r := range records {
		out[i] = r.ToProperty()
	}
	return out
}
