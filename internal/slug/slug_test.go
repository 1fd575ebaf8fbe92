package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain title", input: "Sea View Apartment in Alanya", expected: "sea-view-apartment-in-alanya"},
		{name: "punctuation collapses", input: "  Villa -- 5+1, Private Pool!  ", expected: "villa-5-1-private-pool"},
		{name: "french accents", input: "Résidence à Cannes", expected: "residence-a-cannes"},
		{name: "turkish dotless i", input: "Işıklı Deniz Manzaralı Daire", expected: "isikli-deniz-manzarali-daire"},
		{name: "german sharp s", input: "Große Wohnung", expected: "grosse-wohnung"},
		{name: "ampersand", input: "Sun & Sea", expected: "sun-and-sea"},
		{name: "cyrillic kept", input: "Вилла у моря", expected: "вилла-у-моря"},
		{name: "empty", input: "!!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestMake_Truncates(t *testing.T) {
	long := strings.Repeat("penthouse ", 20)
	got := Make(long)

	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "-"))
	assert.True(t, strings.HasPrefix(got, "penthouse-penthouse"))
	assert.False(t, strings.HasSuffix(got, "penth"), "cut lands on a word boundary")
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "villa-kemer-1001", WithSuffix("villa-kemer", "1001"))
	assert.Equal(t, "villa-kemer", WithSuffix("villa-kemer", ""))
	assert.Equal(t, "1001", WithSuffix("", "1001"))

	got := WithSuffix(Make(strings.Repeat("apartment ", 20)), "AL-1003")
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.True(t, strings.HasSuffix(got, "-al-1003"))
}
