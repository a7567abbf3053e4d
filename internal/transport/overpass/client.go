// Package overpass implements tag-based place search against an OSM Overpass endpoint.
package overpass

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
const Name = "overpass"

// Defaults for the public Overpass instance.
const (
	DefaultBaseURL      = "https://overpass-api.de"
	DefaultRadiusMeters = 2000
	queryTimeoutSeconds = 25
)

// Tag is an OSM key=value pair.
type Tag struct {
	Key   string
	Value string
}

var categoryTags = map[category.Category]Tag{
	category.Restaurant:   {"amenity", "restaurant"},
	category.Cafe:         {"amenity", "cafe"},
	category.Hotel:        {"tourism", "hotel"},
	category.Park:         {"leisure", "park"},
	category.ShoppingMall: {"shop", "mall"},
}

// Config holds Overpass client settings.
type Config struct {
	BaseURL      string
	RadiusMeters int
	UserAgent    string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Client searches OSM features near a point.
type Client struct {
	http      *upstream.Client
	baseURL   string
	radius    int
	userAgent string
}

// New creates an Overpass client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	return &Client{
		http:      upstream.New(upstream.Config{Provider: Name, Timeout: cfg.Timeout, Logger: cfg.Logger}),
		baseURL:   strings.TrimRight(baseURL, "/"),
		radius:    radius,
		userAgent: cfg.UserAgent,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// CategoryTag returns the OSM tag searched for cat.
func CategoryTag(cat category.Category) (Tag, bool) {
	t, ok := categoryTags[cat]
	return t, ok
}

// BuildQuery renders the Overpass QL for nodes and ways tagged t within
// radius meters of point, capped at limit elements.
func BuildQuery(t Tag, point geo.Point, radius, limit int) string {
	around := fmt.Sprintf("(around:%d,%s)", radius, point.String())
	filter := fmt.Sprintf("[%q=%q]", t.Key, t.Value)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];(", queryTimeoutSeconds)
	b.WriteString("node" + filter + around + ";")
	b.WriteString("way" + filter + around + ";")
	fmt.Fprintf(&b, ");out center %d;", limit)
	return b.String()
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *latLon           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Search returns up to limit candidates of cat around point, in provider order.
// Ratings and open-now flags are never present in OSM data.
func (c *Client) Search(ctx context.Context, point geo.Point, cat category.Category, limit int) ([]place.Candidate, error) {
	t, ok := categoryTags[cat]
	if !ok {
		return nil, fmt.Errorf("overpass: no tag for %q", cat)
	}

	form := url.Values{}
	form.Set("data", BuildQuery(t, point, c.radius, limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interpreter",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	body, err := c.http.Do(req, "search")
	if err != nil {
		return nil, err
	}

	var resp response
	if err := c.http.DecodeJSON(body, &resp, "search"); err != nil {
		return nil, err
	}

	out := make([]place.Candidate, 0, len(resp.Elements))
	for i := range resp.Elements {
		el := &resp.Elements[i]
		cand, ok := toCandidate(el, cat)
		if !ok {
			metrics.CandidatesDroppedTotal.WithLabelValues(Name).Inc()
			c.http.Logger().Warn("dropping element without coordinates",
				zap.String("type", el.Type), zap.Int64("id", el.ID))
			continue
		}
		out = append(out, cand)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func toCandidate(el *element, cat category.Category) (place.Candidate, bool) {
	var lat, lon float64
	switch {
	case el.Lat != nil && el.Lon != nil:
		lat, lon = *el.Lat, *el.Lon
	case el.Center != nil:
		lat, lon = el.Center.Lat, el.Center.Lon
	default:
		return place.Candidate{}, false
	}

	name := el.Tags["name"]
	if name == "" {
		name = "Unnamed " + cat.Label()
	}
	cand := place.Candidate{
		ID:            el.Type + "/" + strconv.FormatInt(el.ID, 10),
		Name:          name,
		Location:      geo.Point{Lat: lat, Lon: lon},
		CategoryLabel: place.Ptr(cat.Label()),
		Provider:      Name,
	}
	if addr := address(el.Tags); addr != "" {
		cand.Address = place.Ptr(addr)
	}
	if img := el.Tags["image"]; strings.HasPrefix(img, "http") {
		cand.PhotoRef = place.Ptr(img)
	}
	return cand, true
}

// address joins addr:* tags into "12 Main St, Springfield, 12345".
func address(tags map[string]string) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	parts := make([]string, 0, 3)
	for _, p := range []string{street, tags["addr:city"], tags["addr:postcode"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
