package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/transport/upstream"
)

// Nominatim resolves free text through the OSM Nominatim search API.
// The public instance requires an identifying User-Agent.
type Nominatim struct {
	client    *upstream.Client
	baseURL   string
	userAgent string
	language  string
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(cfg *Config) *Nominatim {
	return &Nominatim{
		client:    upstream.New(upstream.Config{Provider: ProviderNominatim, Timeout: cfg.Timeout, Logger: cfg.Logger}),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
	}
}

// Name returns the provider name.
func (n *Nominatim) Name() string { return ProviderNominatim }

// Geocode returns the top match for text.
func (n *Nominatim) Geocode(ctx context.Context, text string) (geo.Point, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	params.Set("limit", "1")
	if n.language != "" {
		params.Set("accept-language", n.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return geo.Point{}, fmt.Errorf("build nominatim request: %w", err)
	}
	setUserAgent(req, n.userAgent)

	body, err := n.client.Do(req, "geocode")
	if err != nil {
		return geo.Point{}, err
	}

	var results []nominatimResult
	if err := n.client.DecodeJSON(body, &results, "geocode"); err != nil {
		return geo.Point{}, err
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("nominatim: no match for %q: %w", text, domain.ErrNotFound)
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return geo.Point{}, fmt.Errorf("nominatim: unparsable coordinates %q,%q: %w",
			results[0].Lat, results[0].Lon, domain.ErrInvalidInput)
	}
	pt, err := geo.NewPoint(lat, lon)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim: %w", err)
	}

	n.client.Logger().Debug("geocoded",
		zap.String("text", text),
		zap.String("display_name", results[0].DisplayName),
		zap.Float64("lat", pt.Lat),
		zap.Float64("lon", pt.Lon),
	)
	return pt, nil
}
