// Package openplaces implements offline place search over Foursquare Open
// Places parquet files on local disk.
package openplaces

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/metrics"
	"github.com/kailas-cloud/nearby/internal/transport/foursquare"
)

// Name is the provider name used in logs, metrics and errors.
const Name = "openplaces"

// DefaultRadiusMeters bounds the search when no radius is configured.
const DefaultRadiusMeters = 2000

const (
	labelSeparator = " > "
	kmPerDegreeLat = 111.32
)

// categoryLabels lists taxonomy label segments that identify each category.
var categoryLabels = map[category.Category][]string{
	category.Restaurant:   {"Restaurant"},
	category.Cafe:         {"Café", "Cafe", "Coffee Shop", "Cafe, Coffee, and Tea House"},
	category.Hotel:        {"Hotel"},
	category.Park:         {"Park"},
	category.ShoppingMall: {"Shopping Mall"},
}

// Config holds Open Places reader settings.
type Config struct {
	// Path is a parquet file or a directory of *.parquet files.
	Path         string
	RadiusMeters int
	Logger       *zap.Logger
}

// Client scans local parquet files for places near a point.
type Client struct {
	files    []string
	radiusKm float64
	logger   *zap.Logger
}

// New lists the data files. It fails when Path holds no parquet data.
func New(cfg *Config) (*Client, error) {
	if cfg.Path == "" {
		return nil, errors.New("openplaces: data path is required")
	}
	files, err := listFiles(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("openplaces: %w", err)
	}
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		files:    files,
		radiusKm: float64(radius) / 1000,
		logger:   logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Files returns the parquet files scanned by Search.
func (c *Client) Files() []string { return c.files }

// Search returns up to limit open places of cat within the radius of point,
// nearest first. Open Places carries no ratings, hours or photos.
func (c *Client) Search(ctx context.Context, point geo.Point, cat category.Category, limit int) ([]place.Candidate, error) {
	labels, ok := categoryLabels[cat]
	if !ok {
		return nil, fmt.Errorf("openplaces: no taxonomy for %q", cat)
	}
	catID, _ := foursquare.CategoryID(cat)
	m := matcher{catID: catID, labels: labels}
	box := newBBox(point, c.radiusKm)

	start := time.Now()
	var (
		hits    []place.Ranked
		scanned int
		dropped int
	)
	collect := func(row *placeRow) bool {
		scanned++
		if row.DateClosed != "" || !m.match(row) {
			return true
		}
		if row.Latitude == nil || row.Longitude == nil {
			dropped++
			return true
		}
		lat, lon := *row.Latitude, *row.Longitude
		if !box.contains(lat, lon) {
			return true
		}
		d := geo.Haversine(point.Lat, point.Lon, lat, lon)
		if d > c.radiusKm {
			return true
		}
		hits = append(hits, place.Ranked{Candidate: toCandidate(row, cat, lat, lon), DistanceKm: d})
		return true
	}

	for _, path := range c.files {
		if _, err := scanFile(ctx, path, collect); err != nil {
			c.observe("error", start)
			metrics.ProviderErrorsTotal.WithLabelValues(Name, "search", domain.ErrorClass(err)).Inc()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("openplaces: %w: %w", domain.ErrUpstreamUnavailable, ctxErr)
			}
			return nil, fmt.Errorf("openplaces: %s: %w: %w", path, domain.ErrUpstreamError, err)
		}
	}
	c.observe("success", start)
	if dropped > 0 {
		metrics.CandidatesDroppedTotal.WithLabelValues(Name).Add(float64(dropped))
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].DistanceKm < hits[j].DistanceKm })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	c.logger.Debug("openplaces scan finished",
		zap.Int("files", len(c.files)),
		zap.Int("rows", scanned),
		zap.Int("matches", len(hits)),
		zap.Int("dropped", dropped),
		zap.Duration("took", time.Since(start)),
	)

	out := make([]place.Candidate, len(hits))
	for i := range hits {
		out[i] = hits[i].Candidate
	}
	return out, nil
}

func (c *Client) observe(status string, start time.Time) {
	metrics.ProviderRequestDuration.WithLabelValues(Name, "search").Observe(time.Since(start).Seconds())
	metrics.ProviderRequestsTotal.WithLabelValues(Name, "search", status).Inc()
}

type matcher struct {
	catID  string
	labels []string
}

// match accepts a row by taxonomy id, or by any segment of its category labels.
func (m matcher) match(row *placeRow) bool {
	for _, id := range row.CatIDs {
		if id == m.catID {
			return true
		}
	}
	for _, full := range row.CatLabels {
		for _, seg := range strings.Split(full, labelSeparator) {
			for _, want := range m.labels {
				if strings.EqualFold(strings.TrimSpace(seg), want) {
					return true
				}
			}
		}
	}
	return false
}

type bbox struct {
	minLat, maxLat, minLon, maxLon float64
}

// newBBox returns a box enclosing the circle of radiusKm around p.
// Near the poles the longitude span covers the whole range.
func newBBox(p geo.Point, radiusKm float64) bbox {
	dLat := radiusKm / kmPerDegreeLat
	cos := math.Cos(p.Lat * math.Pi / 180)
	dLon := 180.0
	if cos > 1e-6 {
		dLon = math.Min(180, dLat/cos)
	}
	return bbox{
		minLat: p.Lat - dLat, maxLat: p.Lat + dLat,
		minLon: p.Lon - dLon, maxLon: p.Lon + dLon,
	}
}

func (b bbox) contains(lat, lon float64) bool {
	if lat < b.minLat || lat > b.maxLat {
		return false
	}
	if b.maxLon-b.minLon >= 360 {
		return true
	}
	switch {
	case b.minLon < -180:
		return lon >= b.minLon+360 || lon <= b.maxLon
	case b.maxLon > 180:
		return lon >= b.minLon || lon <= b.maxLon-360
	default:
		return lon >= b.minLon && lon <= b.maxLon
	}
}

func toCandidate(row *placeRow, cat category.Category, lat, lon float64) place.Candidate {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = "Unnamed " + cat.Label()
	}
	cand := place.Candidate{
		ID:       row.ID,
		Name:     name,
		Location: geo.Point{Lat: lat, Lon: lon},
		Provider: Name,
	}
	if addr := joinNonEmpty(row.Address, row.Locality, row.Region, row.Country); addr != "" {
		cand.Address = place.Ptr(addr)
	}
	if len(row.CatLabels) > 0 {
		segs := strings.Split(row.CatLabels[0], labelSeparator)
		cand.CategoryLabel = place.Ptr(strings.TrimSpace(segs[len(segs)-1]))
	}
	return cand
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
