package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/transport/upstream"
)

// Photon resolves free text through a Photon (komoot) compatible endpoint.
type Photon struct {
	client    *upstream.Client
	baseURL   string
	userAgent string
	language  string
}

// photonResponse is the GeoJSON FeatureCollection Photon returns.
type photonResponse struct {
	Features []struct {
		Geometry struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name    string `json:"name"`
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// NewPhoton creates a Photon geocoder.
func NewPhoton(cfg *Config) *Photon {
	return &Photon{
		client:    upstream.New(upstream.Config{Provider: ProviderPhoton, Timeout: cfg.Timeout, Logger: cfg.Logger}),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
	}
}

// Name returns the provider name.
func (p *Photon) Name() string { return ProviderPhoton }

// Geocode returns the top match for text.
func (p *Photon) Geocode(ctx context.Context, text string) (geo.Point, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("limit", "1")
	if p.language != "" {
		params.Set("lang", p.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api?"+params.Encode(), http.NoBody)
	if err != nil {
		return geo.Point{}, fmt.Errorf("build photon request: %w", err)
	}
	setUserAgent(req, p.userAgent)

	body, err := p.client.Do(req, "geocode")
	if err != nil {
		return geo.Point{}, err
	}

	var resp photonResponse
	if err := p.client.DecodeJSON(body, &resp, "geocode"); err != nil {
		return geo.Point{}, err
	}
	if len(resp.Features) == 0 {
		return geo.Point{}, fmt.Errorf("photon: no match for %q: %w", text, domain.ErrNotFound)
	}

	coords := resp.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return geo.Point{}, fmt.Errorf("photon: feature without coordinates: %w", domain.ErrInvalidInput)
	}
	pt, err := geo.NewPoint(coords[1], coords[0])
	if err != nil {
		return geo.Point{}, fmt.Errorf("photon: %w", err)
	}

	p.client.Logger().Debug("geocoded",
		zap.String("text", text),
		zap.String("name", resp.Features[0].Properties.Name),
		zap.String("country", resp.Features[0].Properties.Country),
		zap.Float64("lat", pt.Lat),
		zap.Float64("lon", pt.Lon),
	)
	return pt, nil
}
