// Package csvsource fetches, parses and chunks uploaded compatibility CSV files.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrFormat is returned when the CSV body cannot be parsed into uniform records
	ErrFormat = errors.New("malformed csv")
	// ErrMissingHeader is returned when the CSV has no header row
	ErrMissingHeader = errors.New("csv has no header row")
)

const (
	// DefaultChunkSize bounds per-tick work and remote call volume
	DefaultChunkSize = 10
)

// Column names expected in merchant-uploaded compatibility CSVs.
const (
	ColumnPart       = "Part"
	ColumnEngineType = "Engine Type"
	ColumnBrand      = "Brand"
	ColumnModel      = "Model"
	ColumnYear       = "Year"
)

// Record is one parsed CSV row keyed by header column name.
type Record map[string]string

// Parse reads a complete CSV document into ordered records. The first row
// defines the field names. Empty lines are skipped. A column-count mismatch
// fails the whole parse; there is no partial recovery.
func Parse(raw string) ([]Record, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}

		return nil, fmt.Errorf("%w: %s", ErrFormat, err.Error())
	}

	var records []Record

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFormat, err.Error())
		}

		rec := make(Record, len(header))
		for i, name := range header {
			rec[name] = row[i]
		}

		records = append(records, rec)
	}

	return records, nil
}

// Chunk returns the fixed-size slice of records at the given 0-based chunk
// index, clipped to the record count. Out-of-range indexes yield an empty
// slice.
func Chunk(records []Record, size, index int) []Record {
	if size <= 0 || index < 0 {
		return nil
	}

	start := index * size
	if start >= len(records) {
		return nil
	}

	end := start + size
	if end > len(records) {
		end = len(records)
	}

	return records[start:end]
}

// TotalChunks returns ceil(records / size).
func TotalChunks(recordCount, size int) int {
	if size <= 0 || recordCount <= 0 {
		return 0
	}

	return (recordCount + size - 1) / size
}
