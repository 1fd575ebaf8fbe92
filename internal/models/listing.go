package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
)

// Listing is the property view the filter engine and the public API work with.
// Price, Bedrooms and Area are display strings and may hold ranges such as "1+1 <> 2+1".
type Listing struct {
	ID          ListingID `json:"id"`
	RefNo       string    `json:"refNo,omitempty"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Price       string    `json:"price"`
	Bedrooms    string    `json:"bedrooms"`
	Area        string    `json:"area"`
	Status      string    `json:"status"`
	Features    []string  `json:"features"`
	Coordinates orb.Point `json:"coordinates"`
	Slug        string    `json:"slug,omitempty"`
	Image       string    `json:"image,omitempty"`
}

// ListingID is a listing identifier that decodes from either a JSON string or number
type ListingID string

func (id *ListingID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ListingID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("listing id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ListingID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ListingID(n.String())
	return nil
}

// FilterSpec is the set of optional constraints a visitor can apply to the listing grid.
// Every field is raw user input; empty values impose no constraint.
type FilterSpec struct {
	PropertyType string   `form:"type" json:"propertyType"`
	Bedrooms     string   `form:"bedrooms" json:"bedrooms"`
	Location     string   `form:"location" json:"location"`
	District     string   `form:"district" json:"district"`
	RefNo        string   `form:"ref" json:"refNo"`
	MinPrice     string   `form:"minPrice" json:"minPrice"`
	MaxPrice     string   `form:"maxPrice" json:"maxPrice"`
	MinArea      string   `form:"minArea" json:"minArea"`
	MaxArea      string   `form:"maxArea" json:"maxArea"`
	Facilities   []string `form:"facilities" json:"facilities"`
	SortBy       string   `form:"sort" json:"sortBy"`
}
