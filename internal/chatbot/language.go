package chatbot

import (
	"strings"
	"unicode"

	"estateportal/server/config"
)

// languageOrder breaks keyword ties
var languageOrder = []string{"tr", "de", "nl", "fr"}

var languageKeywords = map[string][]string{
	"tr": {"merhaba", "daire", "satılık", "satilik", "oda", "fiyat", "ev", "bir", "ve", "için", "icin", "istiyorum", "arıyorum", "deniz", "manzaralı"},
	"de": {"hallo", "guten", "ich", "suche", "wohnung", "zimmer", "haus", "preis", "mit", "und", "eine", "einen", "bitte", "kaufen"},
	"nl": {"hoi", "goedendag", "ik", "zoek", "woning", "huis", "slaapkamers", "appartement", "met", "een", "graag", "kopen", "naar"},
	"fr": {"bonjour", "salut", "je", "cherche", "maison", "appartement", "chambres", "prix", "avec", "une", "acheter", "vue", "mer"},
}

// DetectLanguage guesses the visitor's language from script first and keywords second.
// English is the fallback.
func DetectLanguage(text string) string {
	var arabic, cyrillic int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		}
	}
	if arabic > 0 && arabic >= cyrillic {
		return "ar"
	}
	if cyrillic > 0 {
		return "ru"
	}

	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, "ğış") {
		return "tr"
	}
	if strings.ContainsRune(lower, 'ß') {
		return "de"
	}

	tokens := tokenize(lower)
	best, bestScore := config.DefaultLanguage, 0
	for _, lang := range languageOrder {
		score := 0
		for _, tok := range tokens {
			for _, kw := range languageKeywords[lang] {
				if tok == kw {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = lang, score
		}
	}
	return best
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// replyLanguage prefers an explicit supported language over detection
func replyLanguage(requested, text string) string {
	if requested != "" {
		lang := config.NormalizeLanguage(requested)
		if config.IsSupportedLanguage(lang) {
			return lang
		}
	}
	if strings.TrimSpace(text) == "" {
		return config.DefaultLanguage
	}
	return DetectLanguage(text)
}

// confirmations take name, property and reference
var confirmations = map[string]string{
	"en": "Thank you %s! Your viewing request for %s has been received. Our team will contact you shortly. Reference: %s",
	"tr": "Teşekkürler %s! %s için görüntüleme talebiniz alındı. Ekibimiz en kısa sürede sizinle iletişime geçecek. Referans: %s",
	"de": "Vielen Dank %s! Ihre Besichtigungsanfrage für %s ist eingegangen. Unser Team meldet sich in Kürze bei Ihnen. Referenz: %s",
	"ru": "Спасибо, %s! Ваша заявка на просмотр объекта %s получена. Наша команда скоро свяжется с вами. Номер заявки: %s",
	"fr": "Merci %s ! Votre demande de visite pour %s a bien été reçue. Notre équipe vous contactera rapidement. Référence : %s",
	"ar": "شكراً %s! تم استلام طلب المعاينة الخاص بك لـ %s. سيتواصل معك فريقنا قريباً. المرجع: %s",
	"nl": "Bedankt %s! Uw bezichtigingsaanvraag voor %s is ontvangen. Ons team neemt spoedig contact met u op. Referentie: %s",
}

var clientSubjects = map[string]string{
	"en": "Your viewing request",
	"tr": "Görüntüleme talebiniz",
	"de": "Ihre Besichtigungsanfrage",
	"ru": "Ваша заявка на просмотр",
	"fr": "Votre demande de visite",
	"ar": "طلب المعاينة الخاص بك",
	"nl": "Uw bezichtigingsaanvraag",
}

func localized(table map[string]string, lang string) string {
	if v, ok := table[lang]; ok {
		return v
	}
	return table[config.DefaultLanguage]
}
