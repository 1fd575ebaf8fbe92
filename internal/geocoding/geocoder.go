package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"
	cacheFileName  = "geocode_cache.json"
)

type Geocoder struct {
	logger    *logrus.Logger
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string
}

type Option func(*Geocoder)

// WithBaseURL points the geocoder at another Nominatim compatible endpoint
func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = u }
}

// WithLimiter replaces the one request per second Nominatim policy limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(g *Geocoder) { g.limiter = l }
}

// NewGeocoder creates a geocoder. An empty cacheDir keeps the cache in memory only.
func NewGeocoder(logger *logrus.Logger, cacheDir, userAgent string, opts ...Option) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	g := &Geocoder{
		logger:    logger,
		cacheDir:  cacheDir,
		cache:     make(map[string][]float64),
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL:   DefaultBaseURL,
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(g)
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
		g.loadCache()
	}

	return g
}

func (g *Geocoder) loadCache() {
	cacheFile := filepath.Join(g.cacheDir, cacheFileName)
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warnf("Could not load geocode cache: %v", err)
		}
		return
	}

	g.cacheLock.Lock()
	defer g.cacheLock.Unlock()
	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(filepath.Join(g.cacheDir, cacheFileName), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode looks up a free-text location restricted to one ISO country code
func (g *Geocoder) Geocode(ctx context.Context, query, countryCode string) (float64, float64, error) {
	countryCode = strings.ToLower(countryCode)
	cacheKey := countryCode + "|" + strings.ToLower(strings.TrimSpace(query))

	g.cacheLock.RLock()
	coords, ok := g.cache[cacheKey]
	g.cacheLock.RUnlock()
	if ok {
		if len(coords) == 2 {
			g.logger.WithFields(logrus.Fields{
				"query":     query,
				"latitude":  coords[0],
				"longitude": coords[1],
				"source":    "cache",
			}).Debug("Found coordinates in cache")
			return coords[0], coords[1], nil
		}
		return 0, 0, fmt.Errorf("invalid cached coordinates for %q", query)
	}

	// Respect Nominatim's usage policy
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	params := url.Values{
		"q":      []string{query},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if countryCode != "" {
		params.Set("countrycodes", countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		return 0, 0, fmt.Errorf("no results found for %q", query)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"query":     query,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded location")

	g.cacheLock.Lock()
	g.cache[cacheKey] = []float64{lat, lon}
	g.cacheLock.Unlock()
	g.saveCache()

	return lat, lon, nil
}
