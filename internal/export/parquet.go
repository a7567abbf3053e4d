package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/nearby/internal/domain/place"
)

// WriteParquet writes records as a single-row-group Parquet file.
func WriteParquet(w io.Writer, records []place.Record) error {
	if err := parquet.Write(w, Rows(records)); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

// ReadParquet reads rows written by WriteParquet.
func ReadParquet(data []byte) ([]Row, error) {
	rows, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
