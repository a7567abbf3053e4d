package discovery

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
)

const directionsURL = "https://www.openstreetmap.org/directions?route=%.6f,%.6f%%3B%.6f,%.6f"

// Project maps a ranked candidate to its display record, substituting
// defaults for absent optional fields. It fails only when origin or the
// candidate location is not a valid coordinate pair.
func Project(r *place.Ranked, origin geo.Point) (place.Record, error) {
	if err := origin.Validate(); err != nil {
		return place.Record{}, fmt.Errorf("project %q: origin: %w", r.Name, err)
	}
	if err := r.Location.Validate(); err != nil {
		return place.Record{}, fmt.Errorf("project %q: location: %w", r.Name, err)
	}

	rec := place.Record{
		ID:         r.ID,
		Name:       r.Name,
		Address:    domain.DefaultAddress,
		Category:   domain.DefaultCategory,
		Rating:     r.Rating,
		RatingText: domain.DefaultRatingText,
		DistanceKm: r.DistanceKm,
		OpenNow:    r.OpenNow,
		OpenText:   domain.DefaultOpenText,
		MapURL: fmt.Sprintf(directionsURL,
			origin.Lat, origin.Lon, r.Location.Lat, r.Location.Lon),
		Latitude:  r.Location.Lat,
		Longitude: r.Location.Lon,
	}
	if r.Address != nil && *r.Address != "" {
		rec.Address = *r.Address
	}
	if r.CategoryLabel != nil && *r.CategoryLabel != "" {
		rec.Category = *r.CategoryLabel
	}
	if r.Rating != nil {
		rec.RatingText = strconv.FormatFloat(*r.Rating, 'f', 1, 64)
	}
	if r.OpenNow != nil {
		rec.OpenText = "Closed"
		if *r.OpenNow {
			rec.OpenText = "Open"
		}
	}
	if r.PhotoRef != nil {
		rec.PhotoURL = *r.PhotoRef
	}
	return rec, nil
}

// ProjectAll projects every ranked result in order.
func ProjectAll(ranked []place.Ranked, origin geo.Point) ([]place.Record, error) {
	out := make([]place.Record, 0, len(ranked))
	for i := range ranked {
		rec, err := Project(&ranked[i], origin)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
