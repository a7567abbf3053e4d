package export

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
)

// Marker kinds stored in the "kind" property.
const (
	KindOrigin = "origin"
	KindPlace  = "place"
)

// FeatureCollection builds one Point marker per record plus the search origin first.
func FeatureCollection(records []place.Record, origin geo.Point) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records)+1)}
	fc.Features = append(fc.Features, &geojson.Feature{
		ID:         KindOrigin,
		Geometry:   geom.NewPointFlat(geom.XY, []float64{origin.Lon, origin.Lat}),
		Properties: map[string]any{"kind": KindOrigin},
	})

	for i := range records {
		r := &records[i]
		props := map[string]any{
			"kind":        KindPlace,
			"name":        r.Name,
			"address":     r.Address,
			"category":    r.Category,
			"rating_text": r.RatingText,
			"distance_km": r.DistanceKm,
			"open_text":   r.OpenText,
			"map_url":     r.MapURL,
		}
		if r.Rating != nil {
			props["rating"] = *r.Rating
		}
		if r.PhotoURL != "" {
			props["photo_url"] = r.PhotoURL
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}),
			Properties: props,
		})
	}
	return fc
}

// EncodeGeoJSON renders records as a GeoJSON FeatureCollection.
func EncodeGeoJSON(records []place.Record, origin geo.Point) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(records, origin))
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}
