package discovery

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
)

func TestProject_Defaults(t *testing.T) {
	r := place.Ranked{
		Candidate:  place.Candidate{ID: "x", Name: "Bare", Location: geo.Point{Lat: 23.03, Lon: 72.58}},
		DistanceKm: 1.2,
	}
	rec, err := Project(&r, ahmedabad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Address != "Address not available" {
		t.Errorf("Address = %q", rec.Address)
	}
	if rec.Category != "N/A" {
		t.Errorf("Category = %q", rec.Category)
	}
	if rec.RatingText != "Not rated" || rec.Rating != nil {
		t.Errorf("RatingText = %q Rating = %v", rec.RatingText, rec.Rating)
	}
	if rec.OpenText != "Unknown" || rec.OpenNow != nil {
		t.Errorf("OpenText = %q", rec.OpenText)
	}
	if rec.PhotoURL != "" {
		t.Errorf("PhotoURL = %q", rec.PhotoURL)
	}
	if rec.Latitude != 23.03 || rec.Longitude != 72.58 || rec.DistanceKm != 1.2 {
		t.Errorf("coords/distance = %+v", rec)
	}
}

func TestProject_FullRecord(t *testing.T) {
	r := place.Ranked{
		Candidate: place.Candidate{
			ID:            "a1",
			Name:          "Honest",
			Address:       place.Ptr("CG Road"),
			CategoryLabel: place.Ptr("Indian Restaurant"),
			Rating:        place.Ptr(8.4),
			OpenNow:       place.Ptr(false),
			PhotoRef:      place.Ptr("https://img.example/1.jpg"),
			Location:      geo.Point{Lat: 23.03, Lon: 72.58},
		},
		DistanceKm: 1.212,
	}
	rec, err := Project(&r, ahmedabad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Address != "CG Road" || rec.Category != "Indian Restaurant" {
		t.Errorf("rec = %+v", rec)
	}
	if rec.RatingText != "8.4" || rec.Rating == nil || *rec.Rating != 8.4 {
		t.Errorf("rating = %q %v", rec.RatingText, rec.Rating)
	}
	if rec.OpenText != "Closed" {
		t.Errorf("OpenText = %q", rec.OpenText)
	}
	if rec.PhotoURL != "https://img.example/1.jpg" {
		t.Errorf("PhotoURL = %q", rec.PhotoURL)
	}
	want := "https://www.openstreetmap.org/directions?route=23.022500,72.571400%3B23.030000,72.580000"
	if rec.MapURL != want {
		t.Errorf("MapURL = %q, want %q", rec.MapURL, want)
	}
}

func TestProject_EmptyOptionalStringsUseDefaults(t *testing.T) {
	r := place.Ranked{Candidate: place.Candidate{
		Name:          "Blank",
		Address:       place.Ptr(""),
		CategoryLabel: place.Ptr(""),
		OpenNow:       place.Ptr(true),
		Location:      geo.Point{Lat: 1, Lon: 1},
	}}
	rec, err := Project(&r, geo.Point{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Address != domain.DefaultAddress || rec.Category != domain.DefaultCategory {
		t.Errorf("rec = %+v", rec)
	}
	if rec.OpenText != "Open" {
		t.Errorf("OpenText = %q", rec.OpenText)
	}
}

func TestProject_InvalidCoordinates(t *testing.T) {
	valid := place.Ranked{Candidate: place.Candidate{Name: "ok", Location: geo.Point{Lat: 1, Lon: 1}}}
	badLoc := place.Ranked{Candidate: place.Candidate{Name: "bad", Location: geo.Point{Lat: 91, Lon: 0}}}

	tests := []struct {
		name   string
		r      place.Ranked
		origin geo.Point
	}{
		{"nan origin", valid, geo.Point{Lat: math.NaN(), Lon: 0}},
		{"out of range origin", valid, geo.Point{Lat: 0, Lon: 181}},
		{"bad candidate", badLoc, ahmedabad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(&tt.r, tt.origin)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestProjectAll(t *testing.T) {
	ranked := []place.Ranked{
		{Candidate: place.Candidate{Name: "a", Location: geo.Point{Lat: 1, Lon: 1}}},
		{Candidate: place.Candidate{Name: "b", Location: geo.Point{Lat: 2, Lon: 2}}},
	}
	recs, err := ProjectAll(ranked, ahmedabad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].Name != "a" || recs[1].Name != "b" {
		t.Errorf("recs = %+v", recs)
	}
	for _, r := range recs {
		if !strings.HasPrefix(r.MapURL, "https://www.openstreetmap.org/directions") {
			t.Errorf("MapURL = %q", r.MapURL)
		}
	}
}
