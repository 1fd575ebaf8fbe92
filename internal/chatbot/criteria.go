package chatbot

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"estateportal/server/config"
	"estateportal/server/internal/models"
)

// Criteria is what the assistant understood from a visitor message
type Criteria struct {
	// Region is set when the message names a market without a specific city
	Region string
	Filter models.FilterSpec
}

// Empty reports whether nothing searchable was found
func (c Criteria) Empty() bool {
	f := c.Filter
	return c.Region == "" && f.PropertyType == "" && f.Bedrooms == "" && f.District == "" &&
		f.MinPrice == "" && f.MaxPrice == ""
}

var (
	bedroomsPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:\+\s*1\b|-?\s*(?:bed(?:room)?s?\b|br\b|bhk\b|schlafzimmer|zimmer|chambres?|pi[eè]ces?|slaapkamers?|kamers?|oda|комнат|спальн|غرف))`)
	amountPattern   = regexp.MustCompile(`(?i)(€|\$|£|\b(?:eur|euros?|usd|gbp|aed)\b)?\s?(\d{1,3}(?:[.,]\d{3})+|\d+(?:[.,]\d+)?)\s?(k\b|m\b|mn\b|millions?\b|mio\b|milyon\b|bin\b|thousand\b|tausend\b|mille\b)?`)
	minPricePattern = regexp.MustCompile(`(?i)(over|above|more than|at least|from|min(?:imum)?|ab|à partir de|au moins|en az|vanaf|от)\s*$`)
)

// typeTerms maps visitor vocabulary onto the filter engine's property types
var typeTerms = []struct {
	kind  string
	terms []string
}{
	{kind: "villa", terms: []string{"villa", "вилла", "виллу", "فيلا"}},
	{kind: "apartment", terms: []string{"apartment", "flat", "penthouse", "studio", "daire", "wohnung", "appartement", "квартир", "شقة"}},
	{kind: "house", terms: []string{"house", "ev", "haus", "maison", "huis", "дом", "منزل"}},
	{kind: "commercial", terms: []string{"office", "shop", "commercial", "ofis", "dükkan", "büro", "bureau", "winkel"}},
}

// ExtractCriteria pulls region, bedrooms, budget and property type out of free text
func ExtractCriteria(message string) Criteria {
	var c Criteria

	if region, term := config.MatchRegion(message); region != nil {
		if term == region.Name {
			c.Region = region.Slug
		} else {
			c.Filter.District = term
		}
	}

	if m := bedroomsPattern.FindStringSubmatch(message); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			if n > 5 {
				n = 5
			}
			c.Filter.Bedrooms = strconv.Itoa(n)
		}
	}

	extractBudget(message, &c.Filter)
	c.Filter.PropertyType = extractType(message)

	return c
}

// extractBudget treats a number as money when it carries a currency or a multiplier, or is
// large enough that it cannot be a room count
func extractBudget(message string, f *models.FilterSpec) {
	for _, idx := range amountPattern.FindAllStringSubmatchIndex(message, -1) {
		currency := idx[2] >= 0
		multiplier := ""
		if idx[6] >= 0 {
			multiplier = strings.ToLower(message[idx[6]:idx[7]])
		}

		value, ok := parseAmount(message[idx[4]:idx[5]])
		if !ok {
			continue
		}
		switch multiplier {
		case "k", "bin", "thousand", "tausend", "mille":
			value *= 1_000
		case "m", "mn", "million", "millions", "mio", "milyon":
			value *= 1_000_000
		}
		if !currency && multiplier == "" && value < 10_000 {
			continue
		}

		amount := strconv.FormatInt(int64(math.Round(value)), 10)
		if minPricePattern.MatchString(message[:idx[0]]) {
			f.MinPrice = amount
		} else {
			f.MaxPrice = amount
		}
	}
}

// parseAmount reads "250,000", "1.5" or "1,5"
func parseAmount(s string) (float64, bool) {
	grouped := len(s) > 4 && (s[len(s)-4] == ',' || s[len(s)-4] == '.')
	if grouped {
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	} else {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func extractType(message string) string {
	tokens := tokenize(strings.ToLower(message))
	for _, t := range typeTerms {
		for _, term := range t.terms {
			for _, tok := range tokens {
				if tok == term || (len([]rune(term)) >= 5 && strings.HasPrefix(tok, term)) {
					return t.kind
				}
			}
		}
	}
	return ""
}
