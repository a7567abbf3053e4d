package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/nearby/internal/domain"
)

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(40.7128, -74.0060, 40.7128, -74.0060)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversine_NewYork_London(t *testing.T) {
	// NYC to London: ~5,570 km
	d := Haversine(40.7128, -74.0060, 51.5074, -0.1278)
	if !almost(d, 5570, 30) {
		t.Fatalf("want ~5570km, got %.1fkm", d)
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(0, 0, 0, 180)
	expected := math.Pi * EarthRadiusKm
	if !almost(d, expected, 0.001) {
		t.Fatalf("want ~%.3fkm, got %.3fkm", expected, d)
	}
}

func TestDistanceKm_Ahmedabad(t *testing.T) {
	origin := Point{Lat: 23.0225, Lon: 72.5714}
	cand := Point{Lat: 23.0300, Lon: 72.5800}

	// 0.0075° north (~0.834km) and 0.0086° east at lat 23° (~0.880km).
	d := DistanceKm(origin, cand)
	if !almost(d, 1.212, 0.01) {
		t.Fatalf("want ~1.212km, got %.3fkm", d)
	}
}

func TestDistanceKm_Identity(t *testing.T) {
	points := []Point{
		{0, 0},
		{23.0225, 72.5714},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
	}
	for _, p := range points {
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %f, want 0", p, p, d)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{{23.0225, 72.5714}, {23.0300, 72.5800}},
		{{40.7128, -74.0060}, {51.5074, -0.1278}},
		{{-33.8688, 151.2093}, {35.6762, 139.6503}},
		{{0, 179.9}, {0, -179.9}},
	}
	for _, pr := range pairs {
		ab := DistanceKm(pr[0], pr[1])
		ba := DistanceKm(pr[1], pr[0])
		if !almost(ab, ba, 1e-9) {
			t.Errorf("asymmetric distance %v<->%v: %f vs %f", pr[0], pr[1], ab, ba)
		}
	}
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	d := DistanceKm(Point{Lat: math.NaN(), Lon: 0}, Point{})
	if !math.IsNaN(d) {
		t.Fatalf("want NaN, got %f", d)
	}
}

func TestNewPoint(t *testing.T) {
	if _, err := NewPoint(23.0225, 72.5714); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	invalid := []Point{
		{91, 0},
		{0, 181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range invalid {
		_, err := NewPoint(p.Lat, p.Lon)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("NewPoint(%v, %v): want ErrInvalidInput, got %v", p.Lat, p.Lon, err)
		}
	}
}

func TestPoint_String(t *testing.T) {
	p := Point{Lat: 23.0225, Lon: 72.5714}
	if got := p.String(); got != "23.022500,72.571400" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		valid    bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-91, 0, false},
		{0, -181, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		if got := ValidateCoordinates(tt.lat, tt.lon); got != tt.valid {
			t.Errorf("ValidateCoordinates(%f, %f) = %v, want %v", tt.lat, tt.lon, got, tt.valid)
		}
	}
}
