package models

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingIDUnmarshal(t *testing.T) {
	tests := []struct {
		input    string
		expected ListingID
		wantErr  bool
	}{
		{input: `"ant-1001"`, expected: "ant-1001"},
		{input: `1024`, expected: "1024"},
		{input: `12.5`, expected: "12.5"},
		{input: `null`, expected: ""},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var l Listing
			err := json.Unmarshal([]byte(`{"id":`+tt.input+`}`), &l)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, l.ID)
		})
	}
}

func TestPropertySlugs(t *testing.T) {
	p := Property{Slug: "sea-view-apartment"}

	assert.True(t, p.SetSlug("tr", "deniz-manzarali-daire"))
	assert.True(t, p.SetSlug("ar", "شقة"))
	assert.False(t, p.SetSlug("xx", "ignored"))

	assert.Equal(t, "deniz-manzarali-daire", p.SlugFor("tr"))
	assert.Equal(t, "", p.SlugFor("de"))
	assert.Equal(t, "sea-view-apartment", p.LocalizedSlug("de"), "falls back to the base slug")
	assert.Equal(t, "sea-view-apartment", p.SlugFor("en"))

	assert.Equal(t, "slug", SlugColumn("en"))
	assert.Equal(t, "slug_nl", SlugColumn("nl"))
}

func TestPropertyListing(t *testing.T) {
	ref := "AN-1001"
	lat, lng := 36.6025, 30.5594
	p := Property{
		ID:            7,
		RefNo:         &ref,
		Title:         "Villa",
		SizesM2:       "320",
		Features:      []string{"Pool"},
		Latitude:      &lat,
		Longitude:     &lng,
		Slug:          "villa",
		PropertyImage: "/img.jpg",
	}

	l := p.Listing()
	assert.Equal(t, ListingID("7"), l.ID)
	assert.Equal(t, "AN-1001", l.RefNo)
	assert.Equal(t, "320", l.Area)
	assert.Equal(t, orb.Point{30.5594, 36.6025}, l.Coordinates)
	assert.Equal(t, "/img.jpg", l.Image)

	l.Features[0] = "Changed"
	assert.Equal(t, "Pool", p.Features[0], "features are copied")

	var noCoords Property
	_, ok := noCoords.Coordinates()
	assert.False(t, ok)
	assert.Equal(t, "", noCoords.RefNoValue())
}

func TestDuplicateCheckTotal(t *testing.T) {
	c := DuplicateCheck{Matches: []DuplicateMatch{{Count: 2}, {Count: 1}}}
	assert.Equal(t, 3, c.Total())
	assert.True(t, KeyRefNo.Valid())
	assert.False(t, NaturalKey("price").Valid())
}
