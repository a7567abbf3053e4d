// Package export renders display records as downloadable tables and map markers.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
)

// Format is an export encoding.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatGeoJSON Format = "geojson"
)

var formatMeta = map[Format]struct{ ext, contentType string }{
	FormatJSON:    {"json", "application/json"},
	FormatCSV:     {"csv", "text/csv; charset=utf-8"},
	FormatParquet: {"parquet", "application/vnd.apache.parquet"},
	FormatGeoJSON: {"geojson", "application/geo+json"},
}

// ParseFormat accepts a format name or file extension, case-insensitive.
// Empty means JSON.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatJSON, nil
	}
	if _, ok := formatMeta[f]; !ok {
		return "", fmt.Errorf("unknown export format %q", s)
	}
	return f, nil
}

// Files returns the formats offered as downloads.
func Files() []Format {
	return []Format{FormatCSV, FormatParquet, FormatGeoJSON}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return formatMeta[f].ext }

// ContentType returns the MIME type.
func (f Format) ContentType() string { return formatMeta[f].contentType }

// Row is the flat tabular shape of a record. Pointer fields are optional
// Parquet columns.
type Row struct {
	Name       string   `parquet:"name"`
	Address    string   `parquet:"address"`
	Category   string   `parquet:"category"`
	Rating     *float64 `parquet:"rating"`
	DistanceKm float64  `parquet:"distance_km"`
	OpenNow    *bool    `parquet:"open_now"`
	Latitude   float64  `parquet:"latitude"`
	Longitude  float64  `parquet:"longitude"`
}

// Rows flattens records for tabular export.
func Rows(records []place.Record) []Row {
	rows := make([]Row, len(records))
	for i := range records {
		r := &records[i]
		rows[i] = Row{
			Name:       r.Name,
			Address:    r.Address,
			Category:   r.Category,
			Rating:     r.Rating,
			DistanceKm: r.DistanceKm,
			OpenNow:    r.OpenNow,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
		}
	}
	return rows
}

// Encode renders records in format f. origin is used by GeoJSON only.
func Encode(f Format, records []place.Record, origin geo.Point) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(&buf, records)
	case FormatParquet:
		err = WriteParquet(&buf, records)
	case FormatGeoJSON:
		return EncodeGeoJSON(records, origin)
	case FormatJSON:
		if records == nil {
			records = []place.Record{}
		}
		return json.Marshal(records)
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
