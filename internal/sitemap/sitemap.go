// Package sitemap renders the public sitemap with hreflang alternates for every locale.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"estateportal/server/config"
	"estateportal/server/internal/models"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
	dateFmt   = "2006-01-02"
)

// StaticPages are the localized pages that exist independent of content
var StaticPages = []Page{
	{Path: "", ChangeFreq: "daily", Priority: "1.0"},
	{Path: "properties", ChangeFreq: "daily", Priority: "0.9"},
	{Path: "about", ChangeFreq: "monthly", Priority: "0.5"},
	{Path: "contact", ChangeFreq: "monthly", Priority: "0.5"},
	{Path: "blog", ChangeFreq: "weekly", Priority: "0.6"},
}

// Page is a sitemap entry before localization. Paths maps a language to its path when it
// differs per locale; Path is used otherwise.
type Page struct {
	Path       string
	Paths      map[string]string
	LastMod    time.Time
	ChangeFreq string
	Priority   string
}

func (p Page) pathFor(lang string) string {
	if v, ok := p.Paths[lang]; ok {
		return v
	}
	return p.Path
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	XHTML   string     `xml:"xmlns:xhtml,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string      `xml:"loc"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq string      `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Alternates []alternate `xml:"xhtml:link"`
}

type alternate struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Store is the content the sitemap lists
type Store interface {
	ListActiveProperties(ctx context.Context) ([]models.Property, error)
	ListPublishedPosts(ctx context.Context) ([]models.BlogPost, error)
}

type Generator struct {
	store   Store
	siteURL string
	logger  *logrus.Logger
}

func NewGenerator(store Store, siteURL string, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Generator{store: store, siteURL: siteURL, logger: logger}
}

// Pages collects every page of the site: static pages, region landing pages, active
// properties and published posts
func (g *Generator) Pages(ctx context.Context) ([]Page, error) {
	properties, err := g.store.ListActiveProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	posts, err := g.store.ListPublishedPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}

	pages := append([]Page(nil), StaticPages...)
	for _, r := range config.GetRegions() {
		pages = append(pages, Page{Path: "properties/" + r.Slug, ChangeFreq: "daily", Priority: "0.8"})
	}

	for i := range properties {
		p := &properties[i]
		if p.Slug == "" {
			continue
		}
		page := Page{Paths: make(map[string]string), LastMod: p.UpdatedAt, ChangeFreq: "weekly", Priority: "0.7"}
		for _, lang := range config.GetLanguageCodes() {
			page.Paths[lang] = "property/" + url.PathEscape(p.LocalizedSlug(lang))
		}
		pages = append(pages, page)
	}

	for _, post := range posts {
		lastMod := post.UpdatedAt
		if lastMod.IsZero() && post.PublishedAt != nil {
			lastMod = *post.PublishedAt
		}
		pages = append(pages, Page{Path: "blog/" + url.PathEscape(post.Slug), LastMod: lastMod, ChangeFreq: "monthly", Priority: "0.6"})
	}

	return pages, nil
}

// Generate renders the sitemap document. Each page appears once per language, and every
// entry carries the full set of alternates plus x-default.
func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	pages, err := g.Pages(ctx)
	if err != nil {
		return nil, err
	}

	langs := config.GetLanguageCodes()
	set := urlSet{XMLNS: sitemapNS, XHTML: xhtmlNS, URLs: make([]urlEntry, 0, len(pages)*len(langs))}

	for _, page := range pages {
		alternates := make([]alternate, 0, len(langs)+1)
		for _, lang := range langs {
			alternates = append(alternates, alternate{
				Rel:      "alternate",
				Hreflang: hreflang(lang),
				Href:     g.pageURL(lang, page.pathFor(lang)),
			})
		}
		alternates = append(alternates, alternate{
			Rel:      "alternate",
			Hreflang: "x-default",
			Href:     g.pageURL(config.DefaultLanguage, page.pathFor(config.DefaultLanguage)),
		})

		var lastMod string
		if !page.LastMod.IsZero() {
			lastMod = page.LastMod.UTC().Format(dateFmt)
		}
		for _, lang := range langs {
			set.URLs = append(set.URLs, urlEntry{
				Loc:        g.pageURL(lang, page.pathFor(lang)),
				LastMod:    lastMod,
				ChangeFreq: page.ChangeFreq,
				Priority:   page.Priority,
				Alternates: alternates,
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"pages": len(pages),
		"urls":  len(set.URLs),
	}).Info("Sitemap generated")

	return buf.Bytes(), nil
}

// pageURL builds the absolute URL of path in lang. The default language has no prefix.
func (g *Generator) pageURL(lang, path string) string {
	prefix := ""
	if lang != config.DefaultLanguage {
		prefix = "/" + lang
	}
	if path == "" {
		if prefix == "" {
			return g.siteURL + "/"
		}
		return g.siteURL + prefix
	}
	return g.siteURL + prefix + "/" + path
}

func hreflang(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
