package filter

import (
	"regexp"
	"strconv"
	"strings"
)

// RangeDelimiter separates the lower and upper bound in range fields ("1+1 <> 2+1")
const RangeDelimiter = "<>"

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func isUnset(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all", "any":
		return true
	}
	return false
}

func isRange(v string) bool {
	return strings.Contains(v, RangeDelimiter)
}

// digitsValue strips every non-digit and parses what is left.
// "€1,200,000" becomes 1200000.
func digitsValue(v string) (int64, bool) {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingInt parses the integer at the start of v, ignoring leading spaces.
// "3+1" is 3, "Studio" is not a number.
func leadingInt(v string) (int, bool) {
	v = strings.TrimSpace(v)
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// firstNumber returns the first decimal number found in v. Thousands separators are dropped.
func firstNumber(v string) (float64, bool) {
	m := numberPattern.FindString(strings.ReplaceAll(v, ",", ""))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseRange reads "85" or "85 <> 140" into a closed interval
func parseRange(v string) (float64, float64, bool) {
	if !isRange(v) {
		n, ok := firstNumber(v)
		return n, n, ok
	}

	parts := strings.Split(v, RangeDelimiter)
	lo, loOK := firstNumber(parts[0])
	hi, hiOK := firstNumber(parts[len(parts)-1])
	switch {
	case !loOK && !hiOK:
		return 0, 0, false
	case !loOK:
		lo = hi
	case !hiOK:
		hi = lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// Ordinal derives a sortable number from a listing id: the id itself when numeric,
// otherwise its trailing run of digits ("ant-1024" is 1024). Ids without digits are 0.
func Ordinal(id string) int64 {
	id = strings.TrimSpace(id)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}

	start := len(id)
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == len(id) {
		return 0
	}
	n, err := strconv.ParseInt(id[start:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseFacilities splits a comma separated facility list, dropping blanks
func ParseFacilities(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
