package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateportal/server/config"
	"estateportal/server/internal/models"
)

type stubStore struct {
	properties []models.Property
	posts      []models.BlogPost
	err        error
}

func (s stubStore) ListActiveProperties(ctx context.Context) ([]models.Property, error) {
	return s.properties, s.err
}

func (s stubStore) ListPublishedPosts(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts, nil
}

// parsed mirrors the rendered document for assertions
type parsed struct {
	URLs []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		Alternates []struct {
			Hreflang string `xml:"hreflang,attr"`
			Href     string `xml:"href,attr"`
		} `xml:"http://www.w3.org/1999/xhtml link"`
	} `xml:"url"`
}

func TestGenerate(t *testing.T) {
	config.ResetRegions()
	updated := time.Date(2024, 5, 2, 15, 4, 0, 0, time.UTC)
	store := stubStore{
		properties: []models.Property{
			{ID: 1, Slug: "sea-view-apartment", SlugTR: "deniz-manzarali-daire", SlugRU: "квартира", UpdatedAt: updated},
			{ID: 2, Slug: ""},
		},
		posts: []models.BlogPost{{Slug: "buying-guide", UpdatedAt: updated}},
	}

	out, err := NewGenerator(store, "https://estates.test", nil).Generate(context.Background())
	require.NoError(t, err)

	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, xml.Header))
	assert.Contains(t, doc, `xmlns:xhtml="http://www.w3.org/1999/xhtml"`)

	var set parsed
	require.NoError(t, xml.Unmarshal(out, &set))

	langs := len(config.GetLanguageCodes())
	pages := len(StaticPages) + len(config.GetRegions()) + 1 + 1
	require.Len(t, set.URLs, pages*langs)

	for _, u := range set.URLs {
		require.Len(t, u.Alternates, langs+1, u.Loc)
		assert.Equal(t, "x-default", u.Alternates[langs].Hreflang)
	}

	locs := make(map[string]string, len(set.URLs))
	for _, u := range set.URLs {
		locs[u.Loc] = u.LastMod
	}
	assert.Contains(t, locs, "https://estates.test/")
	assert.Contains(t, locs, "https://estates.test/tr")
	assert.Contains(t, locs, "https://estates.test/de/properties/dubai")
	assert.Contains(t, locs, "https://estates.test/property/sea-view-apartment")
	assert.Contains(t, locs, "https://estates.test/tr/property/deniz-manzarali-daire")
	assert.Contains(t, locs, "https://estates.test/de/property/sea-view-apartment", "missing translations fall back")
	assert.Contains(t, locs, "https://estates.test/ru/property/%D0%BA%D0%B2%D0%B0%D1%80%D1%82%D0%B8%D1%80%D0%B0")
	assert.Equal(t, "2024-05-02", locs["https://estates.test/fr/blog/buying-guide"])
	assert.Equal(t, "", locs["https://estates.test/about"])
}

func TestGenerate_StoreError(t *testing.T) {
	_, err := NewGenerator(stubStore{err: errors.New("db down")}, "https://estates.test", nil).Generate(context.Background())
	assert.Error(t, err)
}

func TestPageURL(t *testing.T) {
	g := NewGenerator(stubStore{}, "https://estates.test", nil)
	assert.Equal(t, "https://estates.test/", g.pageURL("en", ""))
	assert.Equal(t, "https://estates.test/ar", g.pageURL("ar", ""))
	assert.Equal(t, "https://estates.test/nl/contact", g.pageURL("nl", "contact"))
}
