// Package slug builds URL path segments from listing titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds the slug length in bytes
const MaxLength = 96

// Letters that do not decompose into base letter + combining mark
var foldReplacer = strings.NewReplacer(
	"ı", "i", "İ", "i",
	"ß", "ss",
	"æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o",
	"œ", "oe", "Œ", "oe",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
	"&", " and ",
)

var lower = cases.Lower(language.Und)

// Make turns s into a lowercase, dash separated slug with Latin diacritics folded away.
// Letters outside the Latin script are kept so Cyrillic or Arabic titles still produce a
// readable segment.
func Make(s string) string {
	s = foldReplacer.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = lower.String(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}

	out := b.String()
	if len(out) > MaxLength {
		out = truncate(out, MaxLength)
	}
	return out
}

// truncate cuts at the last dash before limit, or at a rune boundary if there is none
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for !isRuneStart(s, len(cut)) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexByte(cut, '-'); i > limit/2 {
		cut = cut[:i]
	}
	return strings.Trim(cut, "-")
}

func isRuneStart(s string, i int) bool {
	return i >= len(s) || s[i]&0xC0 != 0x80
}

// WithSuffix appends a disambiguating suffix, keeping the result within MaxLength
func WithSuffix(base, suffix string) string {
	suffix = Make(suffix)
	if suffix == "" {
		return base
	}
	room := MaxLength - len(suffix) - 1
	if len(base) > room {
		base = truncate(base, room)
	}
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
