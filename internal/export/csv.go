package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kailas-cloud/nearby/internal/domain/place"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Name", "Address", "Category", "Rating", "Distance(km)", "OpenNow", "Latitude", "Longitude"}

// WriteCSV writes records with CSVHeader. Absent rating and open-now are empty cells.
func WriteCSV(w io.Writer, records []place.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range Rows(records) {
		rating := ""
		if row.Rating != nil {
			rating = strconv.FormatFloat(*row.Rating, 'f', -1, 64)
		}
		open := ""
		if row.OpenNow != nil {
			open = strconv.FormatBool(*row.OpenNow)
		}
		rec := []string{
			row.Name,
			row.Address,
			row.Category,
			rating,
			strconv.FormatFloat(row.DistanceKm, 'f', 3, 64),
			open,
			strconv.FormatFloat(row.Latitude, 'f', 6, 64),
			strconv.FormatFloat(row.Longitude, 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %q: %w", row.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ParseCSV reads rows written by WriteCSV.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range CSVHeader {
		if header[i] != h {
			return nil, fmt.Errorf("csv column %d: got %q, want %q", i, header[i], h)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	row := Row{Name: rec[0], Address: rec[1], Category: rec[2]}
	var err error
	if rec[3] != "" {
		v, perr := strconv.ParseFloat(rec[3], 64)
		if perr != nil {
			return Row{}, fmt.Errorf("rating: %w", perr)
		}
		row.Rating = &v
	}
	if row.DistanceKm, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return Row{}, fmt.Errorf("distance: %w", err)
	}
	if rec[5] != "" {
		v, perr := strconv.ParseBool(rec[5])
		if perr != nil {
			return Row{}, fmt.Errorf("open now: %w", perr)
		}
		row.OpenNow = &v
	}
	if row.Latitude, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return Row{}, fmt.Errorf("latitude: %w", err)
	}
	if row.Longitude, err = strconv.ParseFloat(rec[7], 64); err != nil {
		return Row{}, fmt.Errorf("longitude: %w", err)
	}
	return row, nil
}
