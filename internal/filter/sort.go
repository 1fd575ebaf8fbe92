package filter

import (
	"sort"
	"strings"

	"estateportal/server/internal/models"
)

// Sort keys accepted by Sort. Unknown keys sort like SortRef.
const (
	SortPriceLow      = "price-low"
	SortPriceHigh     = "price-high"
	SortLowToHigh     = "low-to-high"
	SortHighToLow     = "high-to-low"
	SortNewest        = "newest"
	SortOldest        = "oldest"
	SortAreaLarge     = "area-large"
	SortAreaSmall     = "area-small"
	SortBedroomsMost  = "bedrooms-most"
	SortBedroomsLeast = "bedrooms-least"
	SortRef           = "ref"
)

// Sort orders listings in place. The sort is stable, so ties keep their input order.
func Sort(listings []models.Listing, key string) {
	var value func(l *models.Listing) float64
	descending := false

	switch strings.ToLower(strings.TrimSpace(key)) {
	case SortPriceLow, SortLowToHigh:
		value = priceValue
	case SortPriceHigh, SortHighToLow:
		value, descending = priceValue, true
	case SortNewest:
		value, descending = ordinalValue, true
	case SortOldest:
		value = ordinalValue
	case SortAreaLarge:
		value, descending = areaValue, true
	case SortAreaSmall:
		value = areaValue
	case SortBedroomsMost:
		value, descending = bedroomsValue, true
	case SortBedroomsLeast:
		value = bedroomsValue
	default:
		value = ordinalValue
	}

	sort.SliceStable(listings, func(i, j int) bool {
		a, b := value(&listings[i]), value(&listings[j])
		if descending {
			return a > b
		}
		return a < b
	})
}

func priceValue(l *models.Listing) float64 {
	n, _ := digitsValue(l.Price)
	return float64(n)
}

func ordinalValue(l *models.Listing) float64 {
	return float64(Ordinal(string(l.ID)))
}

func areaValue(l *models.Listing) float64 {
	n, _ := firstNumber(l.Area)
	return n
}

func bedroomsValue(l *models.Listing) float64 {
	n, _ := leadingInt(l.Bedrooms)
	return float64(n)
}
