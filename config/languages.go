package config

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a locale the public site is published in
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// Localized pages live under /<code>; the default language has no prefix
	Default bool `json:"default"`
}

// DefaultLanguage is served without a path prefix and owns the base slug column
const DefaultLanguage = "en"

// SupportedLanguages is the list of locales the site is translated into
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", Default: true},
	{Code: "tr", Name: "Turkish"},
	{Code: "de", Name: "German"},
	{Code: "ru", Name: "Russian"},
	{Code: "fr", Name: "French"},
	{Code: "ar", Name: "Arabic"},
	{Code: "nl", Name: "Dutch"},
}

// GetLanguageCodes returns the codes of all supported languages
func GetLanguageCodes() []string {
	codes := make([]string, len(SupportedLanguages))
	for i, lang := range SupportedLanguages {
		codes[i] = lang.Code
	}
	return codes
}

// TranslatedLanguageCodes returns every supported code except the default one
func TranslatedLanguageCodes() []string {
	codes := make([]string, 0, len(SupportedLanguages)-1)
	for _, lang := range SupportedLanguages {
		if !lang.Default {
			codes = append(codes, lang.Code)
		}
	}
	return codes
}

// GetLanguageByCode returns a language configuration by code
func GetLanguageByCode(code string) *Language {
	code = NormalizeLanguage(code)
	for _, lang := range SupportedLanguages {
		if lang.Code == code {
			return &lang
		}
	}
	return nil
}

// IsSupportedLanguage reports whether code names a supported locale
func IsSupportedLanguage(code string) bool {
	return GetLanguageByCode(code) != nil
}

// NormalizeLanguage reduces a BCP 47 tag such as "tr-TR" or "de_AT" to its base language code.
// Unparsable input is returned lowercased.
func NormalizeLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	base, _ := tag.Base()
	return base.String()
}
