package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/domain/query"
	"github.com/kailas-cloud/nearby/internal/export"
	"github.com/kailas-cloud/nearby/internal/usecase/discovery"
)

func testResult(t *testing.T, records []place.Record) discovery.Result {
	t.Helper()
	q, err := query.New("Ahmedabad", category.Cafe, 0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	return discovery.Result{
		SearchID: "id-1",
		Query:    q,
		Origin:   geo.Point{Lat: 23.0225, Lon: 72.5714},
		Provider: "foursquare",
		Records:  records,
	}
}

func sampleRecords() []place.Record {
	return []place.Record{{
		ID: "a", Name: "Chai Point", Address: "CG Road", Category: "Cafe",
		Rating: place.Ptr(8.2), RatingText: "8.2", DistanceKm: 1.2123,
		OpenText: "Open", PhotoURL: "https://img.example/p.jpg",
		MapURL:   "https://www.openstreetmap.org/directions?route=23.022500,72.571400%3B23.030000,72.580000",
		Latitude: 23.03, Longitude: 72.58,
	}}
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags([]string{"-location", "Pune"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if opts.location != "Pune" || opts.category != category.Restaurant ||
		opts.limit != query.DefaultLimit || opts.order != query.OrderDistance || opts.format != formatText {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseFlags_Values(t *testing.T) {
	args := []string{
		"-category", "Shopping Mall", "-min-rating", "7.5", "-limit", "3",
		"-order", "relevance", "-format", "CSV", "-out", "x.csv", "New", "Delhi",
	}
	opts, err := parseFlags(args, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if opts.location != "New Delhi" {
		t.Errorf("positional location = %q", opts.location)
	}
	if opts.category != category.ShoppingMall || opts.minRating != 7.5 || opts.limit != 3 ||
		opts.order != query.OrderRelevance || opts.format != "csv" || opts.out != "x.csv" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := [][]string{
		{"-category", "bar"},
		{"-format", "xlsx"},
		{"-min-rating", "high"},
		{"-unknown"},
	}
	for _, args := range tests {
		if _, err := parseFlags(args, io.Discard); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-category", "cafe"}, &stdout, &stderr); code != exitUsage {
		t.Errorf("missing location: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "location is required") {
		t.Errorf("stderr = %q", stderr.String())
	}

	stderr.Reset()
	if code := run(context.Background(), []string{"-location", "x", "-min-rating", "12"}, &stdout, &stderr); code != exitUsage {
		t.Errorf("bad rating: code = %d", code)
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	var stdout bytes.Buffer
	if code := run(context.Background(), []string{"-version"}, &stdout, io.Discard); code != exitOK {
		t.Errorf("version: code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "nearby ") {
		t.Errorf("version output = %q", stdout.String())
	}

	_, err := parseFlags([]string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("help err = %v", err)
	}
	if code := run(context.Background(), []string{"-h"}, io.Discard, io.Discard); code != exitOK {
		t.Errorf("help: code = %d", code)
	}
}

func TestRenderText(t *testing.T) {
	res := testResult(t, sampleRecords())
	var buf bytes.Buffer
	if err := renderText(&buf, &res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"1 Cafe result(s) near Ahmedabad (23.022500,72.571400) via foursquare",
		"1. Chai Point",
		"Address:  CG Road",
		"Rating:   8.2",
		"Distance: 1.21 km",
		"Open now: Open",
		"Photo:    https://img.example/p.jpg",
		"Map:      https://www.openstreetmap.org/directions?route=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderText_Empty(t *testing.T) {
	res := testResult(t, nil)
	var buf bytes.Buffer
	if err := renderText(&buf, &res); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "No results found near Ahmedabad") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWrite_Formats(t *testing.T) {
	res := testResult(t, sampleRecords())

	var buf bytes.Buffer
	if err := write(res, options{format: "json"}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"name": "Chai Point"`) {
		t.Errorf("json = %s", buf.String())
	}

	buf.Reset()
	if err := write(testResult(t, nil), options{format: "json"}, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty json = %q", buf.String())
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := write(res, options{format: string(export.FormatCSV), out: out}, io.Discard); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := export.ParseCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Chai Point" {
		t.Errorf("rows = %+v", rows)
	}
}
