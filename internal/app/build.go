// Package app assembles the discovery pipeline and its optional backends from config.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/config"
	dbValkey "github.com/kailas-cloud/nearby/internal/db/valkey"
	"github.com/kailas-cloud/nearby/internal/events"
	"github.com/kailas-cloud/nearby/internal/export"
	"github.com/kailas-cloud/nearby/internal/repository/archive"
	"github.com/kailas-cloud/nearby/internal/storage/s3"
	"github.com/kailas-cloud/nearby/internal/transport/foursquare"
	"github.com/kailas-cloud/nearby/internal/transport/geocoder"
	"github.com/kailas-cloud/nearby/internal/transport/openplaces"
	"github.com/kailas-cloud/nearby/internal/transport/overpass"
	"github.com/kailas-cloud/nearby/internal/usecase/discovery"
	"github.com/kailas-cloud/nearby/internal/version"
)

// Archive stores rendered exports and reports its own health.
type Archive interface {
	Put(ctx context.Context, searchID string, f export.Format, data []byte) error
	Get(ctx context.Context, searchID string, f export.Format) ([]byte, error)
	Ping(ctx context.Context) error
}

// Compile-time checks: both drivers satisfy Archive.
var (
	_ Archive = (*archive.Repo)(nil)
	_ Archive = (*s3.Store)(nil)
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// NewGeocoder builds the configured geocoder.
func NewGeocoder(cfg config.GeocoderConfig, logger *zap.Logger) (geocoder.Geocoder, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	g, err := geocoder.New(&geocoder.Config{
		Provider:  cfg.Provider,
		BaseURL:   cfg.BaseURL,
		UserAgent: ua,
		Language:  cfg.Language,
		Timeout:   seconds(cfg.TimeoutSec),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build geocoder: %w", err)
	}
	return g, nil
}

// NewPlaceSearcher builds the configured place search provider.
func NewPlaceSearcher(cfg config.PlacesConfig, logger *zap.Logger) (discovery.PlaceSearcher, error) {
	switch cfg.Provider {
	case "", foursquare.Name:
		return foursquare.New(&foursquare.Config{
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			APIVersion:   cfg.APIVersion,
			RadiusMeters: cfg.RadiusMeters,
			Timeout:      seconds(cfg.TimeoutSec),
			Logger:       logger,
		}), nil
	case overpass.Name:
		return overpass.New(&overpass.Config{
			BaseURL:      cfg.BaseURL,
			RadiusMeters: cfg.RadiusMeters,
			UserAgent:    version.UserAgent(),
			Timeout:      seconds(cfg.TimeoutSec),
			Logger:       logger,
		}), nil
	case openplaces.Name:
		c, err := openplaces.New(&openplaces.Config{
			Path:         cfg.DataDir,
			RadiusMeters: cfg.RadiusMeters,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build openplaces: %w", err)
		}
		logger.Info("Open Places data loaded", zap.Strings("files", c.Files()))
		return c, nil
	default:
		return nil, fmt.Errorf("unknown places provider %q", cfg.Provider)
	}
}

// NewDiscovery wires geocoder, place search and publisher into a discovery service.
func NewDiscovery(cfg *config.Config, publisher discovery.EventPublisher, logger *zap.Logger) (*discovery.Service, error) {
	gc, err := NewGeocoder(cfg.Geocoder, logger)
	if err != nil {
		return nil, err
	}
	places, err := NewPlaceSearcher(cfg.Places, logger)
	if err != nil {
		return nil, err
	}
	unrated, err := discovery.ParseUnratedPolicy(cfg.Ranking.Unrated)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	return discovery.New(gc, places, publisher, discovery.Options{Unrated: unrated}), nil
}

// NewArchive connects the configured export archive. It returns a nil Archive
// when the archive is disabled. The returned close func is never nil.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (Archive, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "":
		return nil, noop, nil

	case "valkey":
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Valkey.Addrs,
			Password: cfg.Valkey.Password,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create valkey store: %w", err)
		}
		if err := store.WaitForReady(ctx, seconds(cfg.ReadinessTimeout)); err != nil {
			store.Close()
			return nil, noop, fmt.Errorf("valkey not ready: %w", err)
		}
		logger.Info("Export archive connected",
			zap.String("driver", cfg.Driver),
			zap.Strings("addrs", cfg.Valkey.Addrs),
		)
		return archive.New(store, seconds(cfg.TTLSec)), store.Close, nil

	case "s3":
		store, err := s3.NewStore(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("create s3 store: %w", err)
		}
		readyCtx, cancel := context.WithTimeout(ctx, seconds(cfg.ReadinessTimeout))
		defer cancel()
		if err := store.EnsureBucket(readyCtx); err != nil {
			return nil, noop, fmt.Errorf("s3 not ready: %w", err)
		}
		logger.Info("Export archive connected",
			zap.String("driver", cfg.Driver),
			zap.String("endpoint", cfg.S3.Endpoint),
			zap.String("bucket", cfg.S3.Bucket),
		)
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPublisher builds the Kafka publisher, or events.Nop when no brokers are set.
// The returned Pinger is a nil interface for Nop.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, Pinger, error) {
	if !cfg.Enabled() {
		return events.Nop{}, nil, nil
	}
	kp, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	logger.Info("Search events enabled",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return kp, kp, nil
}
