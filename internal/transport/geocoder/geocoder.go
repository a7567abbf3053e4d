// Package geocoder resolves free-text locations into coordinates.
package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain/geo"
)

// Provider names accepted by New.
const (
	ProviderPhoton    = "photon"
	ProviderNominatim = "nominatim"
)

// Config holds geocoder settings.
type Config struct {
	Provider  string
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Geocoder resolves a location string to a single point.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (geo.Point, error)
	Name() string
}

// New returns the adapter selected by cfg.Provider.
func New(cfg *Config) (Geocoder, error) {
	switch cfg.Provider {
	case "", ProviderPhoton:
		return NewPhoton(cfg), nil
	case ProviderNominatim:
		return NewNominatim(cfg), nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.Provider)
	}
}

func setUserAgent(req *http.Request, ua string) {
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "application/json")
}
