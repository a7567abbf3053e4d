// Package foursquare implements place search against the Foursquare Places API.
package foursquare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/metrics"
	"github.com/kailas-cloud/nearby/internal/transport/upstream"
)

// Name is the provider name used in logs, metrics and errors.
const Name = "foursquare"

// Defaults for the Places API.
const (
	DefaultBaseURL    = "https://places-api.foursquare.com"
	DefaultAPIVersion = "2025-06-17"
)

const searchFields = "fsq_place_id,name,latitude,longitude,location,categories,rating,hours,photos"

// categoryIDs maps each category to its Foursquare taxonomy id.
var categoryIDs = map[category.Category]string{
	category.Restaurant:   "4bf58dd8d48988d1c4941735",
	category.Cafe:         "4bf58dd8d48988d16d941735",
	category.Hotel:        "4bf58dd8d48988d1fa931735",
	category.Park:         "4bf58dd8d48988d163941735",
	category.ShoppingMall: "4bf58dd8d48988d1fd941735",
}

// Config holds Foursquare client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	APIVersion string
	// RadiusMeters limits the search area; zero lets the provider decide.
	RadiusMeters int
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client searches places near a point.
type Client struct {
	http       *upstream.Client
	baseURL    string
	apiKey     string
	apiVersion string
	radius     int
}

// New creates a Foursquare client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return &Client{
		http:       upstream.New(upstream.Config{Provider: Name, Timeout: cfg.Timeout, Logger: cfg.Logger}),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: version,
		radius:     cfg.RadiusMeters,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// CategoryID returns the taxonomy id for cat.
func CategoryID(cat category.Category) (string, bool) {
	id, ok := categoryIDs[cat]
	return id, ok
}

type searchResponse struct {
	Results []result `json:"results"`
}

type result struct {
	ID        string   `json:"fsq_place_id"`
	LegacyID  string   `json:"fsq_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Geocodes  *struct {
		Main *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Rating *float64 `json:"rating"`
	Hours  *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"hours"`
	Photos []struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"photos"`
}

// Search returns up to limit candidates of cat around point, in provider order.
func (c *Client) Search(ctx context.Context, point geo.Point, cat category.Category, limit int) ([]place.Candidate, error) {
	catID, ok := categoryIDs[cat]
	if !ok {
		return nil, fmt.Errorf("foursquare: no category id for %q", cat)
	}

	params := url.Values{}
	params.Set("ll", point.String())
	params.Set("fsq_category_ids", catID)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", searchFields)
	if c.radius > 0 {
		params.Set("radius", strconv.Itoa(c.radius))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build foursquare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Places-Api-Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")

	body, err := c.http.Do(req, "search")
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.http.DecodeJSON(body, &resp, "search"); err != nil {
		return nil, err
	}

	out := make([]place.Candidate, 0, len(resp.Results))
	for i := range resp.Results {
		cand, ok := toCandidate(&resp.Results[i])
		if !ok {
			metrics.CandidatesDroppedTotal.WithLabelValues(Name).Inc()
			c.http.Logger().Warn("dropping result without coordinates",
				zap.String("name", resp.Results[i].Name))
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

func toCandidate(r *result) (place.Candidate, bool) {
	var lat, lon float64
	switch {
	case r.Latitude != nil && r.Longitude != nil:
		lat, lon = *r.Latitude, *r.Longitude
	case r.Geocodes != nil && r.Geocodes.Main != nil:
		lat, lon = r.Geocodes.Main.Latitude, r.Geocodes.Main.Longitude
	default:
		return place.Candidate{}, false
	}

	id := r.ID
	if id == "" {
		id = r.LegacyID
	}
	cand := place.Candidate{
		ID:       id,
		Name:     r.Name,
		Location: geo.Point{Lat: lat, Lon: lon},
		Rating:   r.Rating,
		Provider: Name,
	}
	if r.Location.FormattedAddress != "" {
		cand.Address = place.Ptr(r.Location.FormattedAddress)
	}
	if len(r.Categories) > 0 && r.Categories[0].Name != "" {
		cand.CategoryLabel = place.Ptr(r.Categories[0].Name)
	}
	if r.Hours != nil {
		cand.OpenNow = r.Hours.OpenNow
	}
	if len(r.Photos) > 0 {
		cand.PhotoRef = place.Ptr(r.Photos[0].Prefix + "original" + r.Photos[0].Suffix)
	}
	return cand, true
}
