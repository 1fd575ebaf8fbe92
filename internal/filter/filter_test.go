package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateportal/server/internal/models"
)

func sampleListings() []models.Listing {
	return []models.Listing{
		{ID: "ant-1003", RefNo: "AL-1003", Title: "Sea view apartment in Alanya", Location: "Alanya, Antalya", Price: "€185,000", Bedrooms: "2", Area: "95", Features: []string{"Swimming pool", "Fitness gym", "Parking"}},
		{ID: "ant-1001", RefNo: "AN-1001", Title: "Luxury villa with private pool", Location: "Kemer, Antalya", Price: "€1,200,000", Bedrooms: "5", Area: "320", Features: []string{"Private pool", "Garden"}},
		{ID: "dxb-2002", RefNo: "DX-2002", Title: "Marina residence", Location: "Dubai Marina, Dubai", Price: "AED 2,400,000", Bedrooms: "1+1 <> 2+1", Area: "70 <> 140", Features: []string{"Gym", "Concierge"}},
		{ID: "cy-3004", RefNo: "CY-3004", Title: "Detached house near Kyrenia", Location: "Kyrenia, Cyprus", Price: "Price on request", Bedrooms: "3", Area: "", Features: []string{"Garden", "Pool"}},
		{ID: "bali-4005", RefNo: "BA-4005", Title: "Jungle villa compound", Location: "Ubud, Bali", Price: "$650,000", Bedrooms: "4+1 <> 6+1", Area: "250 <> 400", Features: []string{"Infinity pool", "Yoga deck", "Home gym"}},
		{ID: "fr-5006", RefNo: "FR-5006", Title: "Office space on the Croisette", Location: "Cannes, France", Price: "€900,000", Bedrooms: "Studio", Area: "120 m2", Features: nil},
	}
}

func ids(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = string(l.ID)
	}
	return out
}

func TestApply_NoConstraints(t *testing.T) {
	in := sampleListings()
	out := Apply(in, models.FilterSpec{})
	assert.Equal(t, []string{"ant-1001", "ant-1003", "dxb-2002", "cy-3004", "bali-4005", "fr-5006"}, ids(out),
		"default sort orders by id ordinal ascending")
}

func TestApply_PropertyType(t *testing.T) {
	tests := []struct {
		name         string
		propertyType string
		expected     []string
	}{
		{name: "apartment family", propertyType: "apartment", expected: []string{"ant-1003", "dxb-2002"}},
		{name: "villa", propertyType: "Villas", expected: []string{"ant-1001", "bali-4005"}},
		{name: "house family", propertyType: "house", expected: []string{"cy-3004"}},
		{name: "commercial family", propertyType: "commercial", expected: []string{"fr-5006"}},
		{name: "unknown type matches literally", propertyType: "compound", expected: []string{"bali-4005"}},
		{name: "all imposes nothing", propertyType: "all", expected: []string{"ant-1001", "ant-1003", "dxb-2002", "cy-3004", "bali-4005", "fr-5006"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(sampleListings(), models.FilterSpec{PropertyType: tt.propertyType})
			assert.Equal(t, tt.expected, ids(out))
		})
	}
}

func TestApply_Bedrooms(t *testing.T) {
	tests := []struct {
		name     string
		bedrooms string
		expected []string
	}{
		// Ranged listings never match a specific count, and "Studio" fails open
		{name: "two", bedrooms: "2", expected: []string{"ant-1003", "fr-5006"}},
		{name: "three", bedrooms: "3", expected: []string{"cy-3004", "fr-5006"}},
		{name: "five or more", bedrooms: "5", expected: []string{"ant-1001", "bali-4005", "fr-5006"}},
		{name: "five plus label", bedrooms: "5+", expected: []string{"ant-1001", "bali-4005", "fr-5006"}},
		{name: "unparsable filter", bedrooms: "many", expected: []string{"ant-1001", "ant-1003", "dxb-2002", "cy-3004", "bali-4005", "fr-5006"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(sampleListings(), models.FilterSpec{Bedrooms: tt.bedrooms})
			assert.Equal(t, tt.expected, ids(out))
		})
	}
}

func TestMatchesBedrooms_RangeQuirk(t *testing.T) {
	for _, n := range []string{"1", "2", "3", "4"} {
		assert.False(t, matchesBedrooms("1+1 <> 2+1", n), "range excluded from %s", n)
		assert.False(t, matchesBedrooms("2 <> 3", n), "range excluded from %s", n)
	}
	assert.True(t, matchesBedrooms("4+1 <> 6+1", "5"))
	assert.False(t, matchesBedrooms("1+1 <> 2+1", "5"))
	assert.True(t, matchesBedrooms("Studio <> Loft", "5"), "range without numbers fails open")
}

func TestApply_TextFilters(t *testing.T) {
	out := Apply(sampleListings(), models.FilterSpec{Location: "antalya"})
	assert.Equal(t, []string{"ant-1001", "ant-1003"}, ids(out))

	out = Apply(sampleListings(), models.FilterSpec{District: "marina"})
	assert.Equal(t, []string{"dxb-2002"}, ids(out), "district matches location")

	out = Apply(sampleListings(), models.FilterSpec{District: "jungle"})
	assert.Equal(t, []string{"bali-4005"}, ids(out), "district also matches title")

	out = Apply(sampleListings(), models.FilterSpec{RefNo: "cy-"})
	assert.Equal(t, []string{"cy-3004"}, ids(out))
}

func TestApply_Price(t *testing.T) {
	listing := []models.Listing{{ID: "1", Price: "€1,200,000"}}

	out := Apply(listing, models.FilterSpec{MinPrice: "500000", MaxPrice: "2000000"})
	assert.Len(t, out, 1)

	out = Apply(listing, models.FilterSpec{MaxPrice: "1000000"})
	assert.Empty(t, out)

	out = Apply(listing, models.FilterSpec{MinPrice: "€1,500,000"})
	assert.Empty(t, out, "bounds are stripped of non-digits too")

	unpriced := []models.Listing{{ID: "2", Price: "Price on request"}}
	out = Apply(unpriced, models.FilterSpec{MinPrice: "1", MaxPrice: "2"})
	assert.Len(t, out, 1, "unparsable price fails open")
}

func TestApply_Area(t *testing.T) {
	tests := []struct {
		name     string
		minArea  string
		maxArea  string
		expected []string
	}{
		{name: "range intersects", minArea: "130", maxArea: "200", expected: []string{"dxb-2002", "cy-3004"}},
		{name: "minimum only", minArea: "300", expected: []string{"ant-1001", "cy-3004", "bali-4005"}},
		{name: "maximum only", maxArea: "100", expected: []string{"ant-1003", "dxb-2002", "cy-3004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(sampleListings(), models.FilterSpec{MinArea: tt.minArea, MaxArea: tt.maxArea})
			assert.Equal(t, tt.expected, ids(out))
		})
	}
}

func TestApply_FacilitiesAreANDed(t *testing.T) {
	out := Apply(sampleListings(), models.FilterSpec{Facilities: []string{"pool", "gym"}})
	assert.Equal(t, []string{"ant-1003", "bali-4005"}, ids(out))

	out = Apply(sampleListings(), models.FilterSpec{Facilities: []string{"POOL", " "}})
	assert.Equal(t, []string{"ant-1001", "ant-1003", "cy-3004", "bali-4005"}, ids(out))
}

func TestApply_Sort(t *testing.T) {
	tests := []struct {
		sort     string
		expected []string
	}{
		{sort: "price-low", expected: []string{"cy-3004", "ant-1003", "bali-4005", "fr-5006", "ant-1001", "dxb-2002"}},
		{sort: "high-to-low", expected: []string{"dxb-2002", "ant-1001", "fr-5006", "bali-4005", "ant-1003", "cy-3004"}},
		{sort: "newest", expected: []string{"fr-5006", "bali-4005", "cy-3004", "dxb-2002", "ant-1003", "ant-1001"}},
		{sort: "oldest", expected: []string{"ant-1001", "ant-1003", "dxb-2002", "cy-3004", "bali-4005", "fr-5006"}},
		{sort: "area-large", expected: []string{"ant-1001", "bali-4005", "fr-5006", "ant-1003", "dxb-2002", "cy-3004"}},
		{sort: "area-small", expected: []string{"cy-3004", "dxb-2002", "ant-1003", "fr-5006", "bali-4005", "ant-1001"}},
		{sort: "bedrooms-most", expected: []string{"ant-1001", "bali-4005", "cy-3004", "ant-1003", "dxb-2002", "fr-5006"}},
		{sort: "bedrooms-least", expected: []string{"fr-5006", "dxb-2002", "ant-1003", "cy-3004", "bali-4005", "ant-1001"}},
		{sort: "whatever", expected: []string{"ant-1001", "ant-1003", "dxb-2002", "cy-3004", "bali-4005", "fr-5006"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			out := Apply(sampleListings(), models.FilterSpec{SortBy: tt.sort})
			assert.Equal(t, tt.expected, ids(out))
		})
	}
}

func TestSort_StableOnTies(t *testing.T) {
	in := []models.Listing{
		{ID: "b", Price: "100"},
		{ID: "a", Price: "100"},
		{ID: "c", Price: "50"},
	}
	Sort(in, SortPriceLow)
	assert.Equal(t, []string{"c", "b", "a"}, ids(in))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := sampleListings()
	snapshot := sampleListings()

	_ = Apply(in, models.FilterSpec{SortBy: "price-high", Facilities: []string{"pool"}})
	assert.Equal(t, snapshot, in)
}

func TestApply_Idempotent(t *testing.T) {
	specs := []models.FilterSpec{
		{},
		{PropertyType: "villa", SortBy: "price-low"},
		{Bedrooms: "5", Facilities: []string{"pool"}, SortBy: "area-large"},
		{Location: "dubai", MinArea: "50", MaxArea: "100", SortBy: "newest"},
		{MinPrice: "100000", MaxPrice: "1000000", SortBy: "bedrooms-least"},
	}

	for _, spec := range specs {
		once := Apply(sampleListings(), spec)
		twice := Apply(once, spec)
		require.Equal(t, ids(once), ids(twice))
	}
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, int64(42), Ordinal("42"))
	assert.Equal(t, int64(1024), Ordinal("ant-1024"))
	assert.Equal(t, int64(0), Ordinal("villa"))
	assert.Equal(t, int64(0), Ordinal(""))
}

func TestParseHelpers(t *testing.T) {
	n, ok := digitsValue("€1,200,000")
	assert.True(t, ok)
	assert.Equal(t, int64(1200000), n)

	_, ok = digitsValue("on request")
	assert.False(t, ok)

	lo, hi, ok := parseRange("140 <> 70")
	assert.True(t, ok)
	assert.Equal(t, 70.0, lo)
	assert.Equal(t, 140.0, hi)

	lo, hi, ok = parseRange("1,250 m2")
	assert.True(t, ok)
	assert.Equal(t, 1250.0, lo)
	assert.Equal(t, 1250.0, hi)

	assert.Equal(t, []string{"pool", "gym"}, ParseFacilities(" pool, ,gym,"))
	assert.Nil(t, ParseFacilities(""))
}
