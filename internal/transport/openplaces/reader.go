package openplaces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// placeRow is the subset of an Open Places row the provider reads.
type placeRow struct {
	ID         string
	Name       string
	Latitude   *float64
	Longitude  *float64
	Address    string
	Locality   string
	Region     string
	Country    string
	CatIDs     []string
	CatLabels  []string
	DateClosed string
}

// rowFunc receives each decoded row. Returning false stops the scan.
type rowFunc func(row *placeRow) bool

// placeColumns holds leaf column indexes; -1 when the file lacks the column.
type placeColumns struct {
	id, name, latitude, longitude     int
	address, locality, region, country int
	catIDs, catLabels, dateClosed     int
}

// resolvePlaceColumns finds leaf column indexes by top-level field name.
// List columns resolve to their single element leaf.
func resolvePlaceColumns(pf *parquet.File) placeColumns {
	cols := placeColumns{
		id: -1, name: -1, latitude: -1, longitude: -1,
		address: -1, locality: -1, region: -1, country: -1,
		catIDs: -1, catLabels: -1, dateClosed: -1,
	}
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "fsq_place_id":
			cols.id = i
		case "name":
			cols.name = i
		case "latitude":
			cols.latitude = i
		case "longitude":
			cols.longitude = i
		case "address":
			cols.address = i
		case "locality":
			cols.locality = i
		case "region":
			cols.region = i
		case "country":
			cols.country = i
		case "fsq_category_ids":
			cols.catIDs = i
		case "fsq_category_labels":
			cols.catLabels = i
		case "date_closed":
			cols.dateClosed = i
		}
	}
	return cols
}

// listFiles expands path: a directory yields its *.parquet files, sorted.
func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := filepath.Glob(filepath.Join(path, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob parquet files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files found in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

// scanFile streams rows of one parquet file into fn. The generic row reader is
// used instead of a typed one: the files carry nullable list columns.
func scanFile(ctx context.Context, path string, fn rowFunc) (done bool, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return false, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return false, fmt.Errorf("open parquet: %w", err)
	}

	cols := resolvePlaceColumns(pf)
	if cols.id < 0 || cols.latitude < 0 || cols.longitude < 0 {
		return false, fmt.Errorf("%s: missing fsq_place_id/latitude/longitude columns", filepath.Base(path))
	}

	buf := make([]parquet.Row, 1000)
	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		stop, err := scanRowGroup(rg, cols, buf, fn)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

func scanRowGroup(rg parquet.RowGroup, cols placeColumns, buf []parquet.Row, fn rowFunc) (bool, error) {
	rows := parquet.NewRowGroupReader(rg)
	defer func() { _ = rows.Close() }()

	for {
		n, readErr := rows.ReadRows(buf)
		for i := 0; i < n; i++ {
			p := rowToPlace(buf[i], cols)
			if !fn(&p) {
				return true, nil
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("read rows: %w", readErr)
		}
	}
}

// rowToPlace extracts a placeRow from a generic parquet row by column index.
func rowToPlace(row parquet.Row, cols placeColumns) placeRow {
	var p placeRow
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.id:
			p.ID = v.String()
		case cols.name:
			p.Name = v.String()
		case cols.latitude:
			f := v.Double()
			p.Latitude = &f
		case cols.longitude:
			f := v.Double()
			p.Longitude = &f
		case cols.address:
			p.Address = v.String()
		case cols.locality:
			p.Locality = v.String()
		case cols.region:
			p.Region = v.String()
		case cols.country:
			p.Country = v.String()
		case cols.catIDs:
			p.CatIDs = append(p.CatIDs, v.String())
		case cols.catLabels:
			p.CatLabels = append(p.CatLabels, v.String())
		case cols.dateClosed:
			p.DateClosed = v.String()
		}
	}
	return p
}
