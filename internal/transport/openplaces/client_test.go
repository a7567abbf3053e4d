package openplaces

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/metrics"
	"github.com/kailas-cloud/nearby/internal/transport/foursquare"
)

// --- Fixtures ---

type fixtureRow struct {
	ID         string   `parquet:"fsq_place_id"`
	Name       string   `parquet:"name"`
	Latitude   *float64 `parquet:"latitude"`
	Longitude  *float64 `parquet:"longitude"`
	Address    *string  `parquet:"address"`
	Locality   *string  `parquet:"locality"`
	Region     *string  `parquet:"region"`
	Country    *string  `parquet:"country"`
	CatIDs     []string `parquet:"fsq_category_ids,list"`
	CatLabels  []string `parquet:"fsq_category_labels,list"`
	DateClosed *string  `parquet:"date_closed"`
}

var origin = geo.Point{Lat: 23.0225, Lon: 72.5714}

func ptr[T any](v T) *T { return &v }

func at(dLat float64) (*float64, *float64) {
	return ptr(origin.Lat + dLat), ptr(origin.Lon)
}

func fixtureRows() []fixtureRow {
	row := func(id, name string, dLat float64, labels ...string) fixtureRow {
		lat, lon := at(dLat)
		return fixtureRow{ID: id, Name: name, Latitude: lat, Longitude: lon, CatLabels: labels}
	}

	labelled := row("r-label", "Swati Snacks", 0.005, "Dining and Drinking > Restaurant > Indian Restaurant")
	labelled.Address = ptr("Law Garden")
	labelled.Locality = ptr("Ahmedabad")
	labelled.Country = ptr("IN")

	byID := row("r-id", "", 0.001)
	restaurantID, _ := foursquare.CategoryID(category.Restaurant)
	byID.CatIDs = []string{restaurantID}

	closed := row("r-closed", "Gone", 0.002, "Dining and Drinking > Restaurant")
	closed.DateClosed = ptr("2023-01-01")

	noCoords := fixtureRow{ID: "r-nocoords", Name: "Nowhere",
		CatLabels: []string{"Dining and Drinking > Restaurant"}}

	return []fixtureRow{
		labelled,
		byID,
		closed,
		noCoords,
		row("r-far", "Far Away", 0.1, "Dining and Drinking > Restaurant"),
		row("c-1", "Coffee Culture", 0.003, "Dining and Drinking > Cafe, Coffee, and Tea House > Café"),
		row("p-1", "Parking Lot", 0.001, "Travel and Transportation > Parking"),
	}
}

func writeFixture(t *testing.T, dir, name string, rows []fixtureRow) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := parquet.Write(f, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "places.parquet", fixtureRows())
	c, err := New(&Config{Path: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// --- Tests ---

func TestNew_Errors(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := New(&Config{Path: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := New(&Config{Path: t.TempDir()}); err == nil {
		t.Error("expected error for directory without parquet files")
	}
}

func TestNew_SingleFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	b := writeFixture(t, dir, "b.parquet", fixtureRows())
	a := writeFixture(t, dir, "a.parquet", fixtureRows())

	c, err := New(&Config{Path: b})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Files(); len(got) != 1 || got[0] != b {
		t.Errorf("Files() = %v, want [%s]", got, b)
	}

	c, err = New(&Config{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Files(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Files() = %v, want sorted [a b]", got)
	}
	if c.Name() != Name {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestSearch_Restaurants(t *testing.T) {
	c := newTestClient(t)
	dropped := metrics.CandidatesDroppedTotal.WithLabelValues(Name)
	before := testutil.ToFloat64(dropped)

	got, err := c.Search(context.Background(), origin, category.Restaurant, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}

	if got[0].ID != "r-id" || got[1].ID != "r-label" {
		t.Errorf("order = [%s %s], want nearest first", got[0].ID, got[1].ID)
	}
	if got[0].Name != "Unnamed Restaurant" {
		t.Errorf("unnamed fallback = %q", got[0].Name)
	}
	if got[0].Address != nil || got[0].CategoryLabel != nil {
		t.Errorf("expected nil optional fields, got %+v", got[0])
	}

	labelled := got[1]
	if labelled.Address == nil || *labelled.Address != "Law Garden, Ahmedabad, IN" {
		t.Errorf("address = %v", labelled.Address)
	}
	if labelled.CategoryLabel == nil || *labelled.CategoryLabel != "Indian Restaurant" {
		t.Errorf("category label = %v", labelled.CategoryLabel)
	}
	if labelled.Rating != nil || labelled.OpenNow != nil || labelled.PhotoRef != nil {
		t.Error("open places rows carry no rating, hours or photos")
	}
	if labelled.Provider != Name {
		t.Errorf("provider = %q", labelled.Provider)
	}

	if d := testutil.ToFloat64(dropped) - before; d != 1 {
		t.Errorf("dropped delta = %v, want 1", d)
	}
}

func TestSearch_Limit(t *testing.T) {
	c := newTestClient(t)
	got, err := c.Search(context.Background(), origin, category.Restaurant, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "r-id" {
		t.Errorf("got %+v, want only the nearest", got)
	}
}

func TestSearch_CafeByLabelSegment(t *testing.T) {
	c := newTestClient(t)
	got, err := c.Search(context.Background(), origin, category.Cafe, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c-1" {
		t.Fatalf("got %+v, want c-1", got)
	}
	if *got[0].CategoryLabel != "Café" {
		t.Errorf("category label = %q", *got[0].CategoryLabel)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	c := newTestClient(t)
	got, err := c.Search(context.Background(), origin, category.Park, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want none (Parking is not Park)", got)
	}
}

func TestSearch_Radius(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "places.parquet", fixtureRows())
	c, err := New(&Config{Path: dir, RadiusMeters: 20000})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Search(context.Background(), origin, category.Restaurant, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2].ID != "r-far" {
		t.Errorf("got %+v, want far restaurant included last", got)
	}
}

func TestSearch_CanceledContext(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, origin, category.Restaurant, 10)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}

func TestSearch_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.parquet"), []byte("not parquet"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := New(&Config{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Search(context.Background(), origin, category.Restaurant, 10)
	if !errors.Is(err, domain.ErrUpstreamError) {
		t.Errorf("err = %v, want ErrUpstreamError", err)
	}
}

func TestBBox_Contains(t *testing.T) {
	tests := []struct {
		name     string
		center   geo.Point
		lat, lon float64
		want     bool
	}{
		{"center", origin, origin.Lat, origin.Lon, true},
		{"north edge out", origin, origin.Lat + 0.05, origin.Lon, false},
		{"antimeridian east side", geo.Point{Lat: 0, Lon: 179.99}, 0, -179.995, true},
		{"antimeridian far", geo.Point{Lat: 0, Lon: 179.99}, 0, -170, false},
		{"pole", geo.Point{Lat: 90, Lon: 0}, 89.99, 120, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBBox(tt.center, 2)
			if got := b.contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
