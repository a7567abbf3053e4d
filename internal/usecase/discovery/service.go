// Package discovery runs the geocode, search, rank and project pipeline for one query.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/domain/query"
	"github.com/kailas-cloud/nearby/internal/events"
	"github.com/kailas-cloud/nearby/internal/logger"
	"github.com/kailas-cloud/nearby/internal/metrics"
)

// State is the lifecycle state of one run.
type State string

// Run states. Success and Failed are terminal.
const (
	StateIdle     State = "idle"
	StateQuerying State = "querying"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
)

// Result is the outcome of a successful run.
type Result struct {
	SearchID string
	Query    query.Query
	Origin   geo.Point
	Provider string
	Records  []place.Record
	Duration time.Duration
}

// Options configure a Service.
type Options struct {
	Unrated UnratedPolicy
	// Now and NewID are overridable in tests.
	Now   func() time.Time
	NewID func() string
}

// Service orchestrates a single discovery run per call.
type Service struct {
	geocoder  Geocoder
	places    PlaceSearcher
	publisher EventPublisher
	unrated   UnratedPolicy
	now       func() time.Time
	newID     func() string
}

// New creates a discovery service. publisher may be nil.
func New(geocoder Geocoder, places PlaceSearcher, publisher EventPublisher, opts Options) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if opts.Unrated == "" {
		opts.Unrated = UnratedInclude
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		geocoder:  geocoder,
		places:    places,
		publisher: publisher,
		unrated:   opts.Unrated,
		now:       opts.Now,
		newID:     opts.NewID,
	}
}

// Provider returns the configured place-search provider name.
func (s *Service) Provider() string { return s.places.Name() }

// Discover runs the pipeline for q. A geocoding failure aborts before the
// place search is attempted. Every error keeps its domain class.
func (s *Service) Discover(ctx context.Context, q query.Query) (Result, error) {
	res := Result{
		SearchID: s.newID(),
		Query:    q,
		Provider: s.places.Name(),
	}
	start := s.now()
	ctx, log := logger.With(ctx, zap.String("search_id", res.SearchID))

	log.Info("discovery started",
		zap.String("from", string(StateIdle)),
		zap.String("state", string(StateQuerying)),
		zap.String("location", q.Location()),
		zap.String("category", string(q.Category())),
		zap.Float64("min_rating", q.MinRating()),
		zap.String("provider", res.Provider),
	)

	records, origin, err := s.run(ctx, q)
	res.Duration = s.now().Sub(start)
	res.Origin = origin
	if err != nil {
		s.finish(ctx, &res, StateFailed, err)
		return Result{}, err
	}
	res.Records = records
	s.finish(ctx, &res, StateSuccess, nil)
	return res, nil
}

func (s *Service) run(ctx context.Context, q query.Query) ([]place.Record, geo.Point, error) {
	origin, err := s.geocoder.Geocode(ctx, q.Location())
	if err != nil {
		return nil, geo.Point{}, fmt.Errorf("geocode %q: %w", q.Location(), err)
	}
	if err := origin.Validate(); err != nil {
		return nil, geo.Point{}, fmt.Errorf("geocode %q: %w", q.Location(), err)
	}

	cands, err := s.places.Search(ctx, origin, q.Category(), q.Limit())
	if err != nil {
		return nil, origin, fmt.Errorf("search %s near %s: %w", q.Category(), origin, err)
	}
	for i := range cands {
		if err := cands[i].Location.Validate(); err != nil {
			return nil, origin, fmt.Errorf("candidate %q from %s: %w", cands[i].Name, s.places.Name(), err)
		}
	}

	ranked := FilterAndRank(cands, origin, RankOptions{
		MinRating: q.MinRating(),
		Unrated:   s.unrated,
		Order:     q.Order(),
	})
	if len(ranked) > q.Limit() {
		ranked = ranked[:q.Limit()]
	}

	records, err := ProjectAll(ranked, origin)
	if err != nil {
		return nil, origin, err
	}
	return records, origin, nil
}

func (s *Service) finish(ctx context.Context, res *Result, state State, runErr error) {
	log := logger.FromContext(ctx)
	errType := domain.ErrorClass(runErr)

	metrics.DiscoveryRunsTotal.WithLabelValues(string(state), errType).Inc()
	if state == StateSuccess {
		metrics.DiscoveryResults.Observe(float64(len(res.Records)))
		log.Info("discovery finished",
			zap.String("state", string(state)),
			zap.Int("results", len(res.Records)),
			zap.Duration("duration", res.Duration),
		)
	} else {
		log.Warn("discovery failed",
			zap.String("state", string(state)),
			zap.String("error_type", errType),
			zap.Error(runErr),
			zap.Duration("duration", res.Duration),
		)
	}

	ev := events.SearchEvent{
		SearchID:    res.SearchID,
		Location:    res.Query.Location(),
		Category:    string(res.Query.Category()),
		MinRating:   res.Query.MinRating(),
		Provider:    res.Provider,
		State:       string(state),
		ResultCount: len(res.Records),
		DurationMs:  res.Duration.Milliseconds(),
		OccurredAt:  s.now().UTC(),
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	// Sent even when the caller has gone away; a failed publish is only logged.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("publish search event", zap.Error(err))
	}
}
