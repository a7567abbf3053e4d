package place

import (
	"github.com/kailas-cloud/nearby/internal/domain/geo"
)

// Candidate is a raw place record returned by a place-search provider.
// Optional fields are nil when the provider omitted them.
type Candidate struct {
	ID            string
	Name          string
	Address       *string
	CategoryLabel *string
	Rating        *float64 // provider scale, 0-10
	Location      geo.Point
	OpenNow       *bool
	PhotoRef      *string // provider photo URL or reference
	Provider      string
}

// HasRating reports whether the provider returned a rating.
func (c *Candidate) HasRating() bool { return c.Rating != nil }

// Ranked is a Candidate with its distance from the search origin.
type Ranked struct {
	Candidate
	DistanceKm float64
}

// Record is the normalized display shape of a ranked candidate.
type Record struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Category   string   `json:"category"`
	Rating     *float64 `json:"rating,omitempty"`
	RatingText string   `json:"rating_text"`
	DistanceKm float64  `json:"distance_km"`
	OpenNow    *bool    `json:"open_now,omitempty"`
	OpenText   string   `json:"open_text"`
	PhotoURL   string   `json:"photo_url,omitempty"`
	MapURL     string   `json:"map_url"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
}

// Ptr returns a pointer to v. Adapters use it for optional Candidate fields.
func Ptr[T any](v T) *T { return &v }
