package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/kailas-cloud/nearby/internal/export"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		f    export.Format
		want string
	}{
		{export.FormatCSV, "exports/abc.csv"},
		{export.FormatParquet, "exports/abc.parquet"},
		{export.FormatGeoJSON, "exports/abc.geojson"},
	}
	for _, tt := range tests {
		if got := ObjectKey("abc", tt.f); got != tt.want {
			t.Errorf("ObjectKey(abc, %s) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey"}, true},
		{"no such bucket", minio.ErrorResponse{Code: "NoSuchBucket"}, true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied"}, false},
		{"plain", errors.New("dial tcp: refused"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	if _, err := NewStore(Config{Bucket: "b"}); err == nil {
		t.Error("expected error without endpoint")
	}
	if _, err := NewStore(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}
	s, err := NewStore(Config{Endpoint: "localhost:9000", Bucket: "nearby", AccessKey: "a", SecretKey: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.bucket != "nearby" {
		t.Errorf("bucket = %q", s.bucket)
	}
}

func ExampleObjectKey() {
	fmt.Println(ObjectKey("0b8f", export.FormatCSV))
	// Output: exports/0b8f.csv
}
