// Package events publishes one message per finished discovery run.
package events

import (
	"context"
	"time"
)

// SearchEvent describes a finished discovery run.
type SearchEvent struct {
	SearchID    string    `json:"search_id"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	MinRating   float64   `json:"min_rating"`
	Provider    string    `json:"provider"`
	State       string    `json:"state"`
	ResultCount int       `json:"result_count"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher sends search events to a sink.
type Publisher interface {
	Publish(ctx context.Context, ev SearchEvent) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, SearchEvent) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
