package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/category"
)

// Query parameter limits.
const (
	// MaxLocationLength is the maximum allowed free-text location length.
	MaxLocationLength = 256
	DefaultLimit      = 10
	MaxLimit          = 50
	MaxRating         = 10.0
)

// Order selects how the result set is sorted.
type Order string

// Result orderings.
const (
	// OrderDistance sorts by distance from the geocoded point, nearest first.
	OrderDistance Order = "distance"
	// OrderRelevance keeps the provider's own ordering.
	OrderRelevance Order = "relevance"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == OrderDistance || o == OrderRelevance
}

// Query is a validated, immutable place search request.
type Query struct {
	location  string
	category  category.Category
	minRating float64
	limit     int
	order     Order
}

// New validates and normalizes search parameters.
// Defaults: minRating=0, limit=10, order=distance. Limit is clamped to MaxLimit.
func New(location string, c category.Category, minRating float64, limit int, order Order) (Query, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Query{}, fmt.Errorf("%w: location is required", domain.ErrInputInvalid)
	}
	if len(location) > MaxLocationLength {
		return Query{}, fmt.Errorf("%w: location too long (max %d chars)", domain.ErrInputInvalid, MaxLocationLength)
	}
	if !c.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown category %q", domain.ErrInputInvalid, c)
	}
	if math.IsNaN(minRating) || minRating < 0 || minRating > MaxRating {
		return Query{}, fmt.Errorf("%w: min_rating must be between 0 and %g", domain.ErrInputInvalid, MaxRating)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if order == "" {
		order = OrderDistance
	}
	if !order.IsValid() {
		return Query{}, fmt.Errorf("%w: invalid order %q", domain.ErrInputInvalid, order)
	}

	return Query{
		location:  location,
		category:  c,
		minRating: minRating,
		limit:     limit,
		order:     order,
	}, nil
}

// Location returns the trimmed free-text location.
func (q Query) Location() string { return q.location }

// Category returns the requested place category.
func (q Query) Category() category.Category { return q.category }

// MinRating returns the minimum rating threshold (0 disables the filter).
func (q Query) MinRating() float64 { return q.minRating }

// Limit returns the maximum number of candidates requested from the provider.
func (q Query) Limit() int { return q.limit }

// Order returns the result ordering.
func (q Query) Order() Order { return q.order }
