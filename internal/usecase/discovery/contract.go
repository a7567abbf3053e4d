package discovery

import (
	"context"

	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/events"
)

// Geocoder resolves free text into a single point.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (geo.Point, error)
}

// PlaceSearcher returns raw candidates around a point.
// Implementations map the category to their own provider code.
type PlaceSearcher interface {
	Search(ctx context.Context, point geo.Point, cat category.Category, limit int) ([]place.Candidate, error)
	Name() string
}

// EventPublisher receives one event per finished run.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.SearchEvent) error
}
