// Package tags generates and classifies vehicle-compatibility tags.
package tags

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrInvalidRange is returned when a year range is malformed or inverted
	ErrInvalidRange = errors.New("invalid year range")
)

const (
	// MinVehicleYear is the lower bound for tags treated as bare year tags
	MinVehicleYear = 1900
	// MaxVehicleYear is the upper bound for tags treated as bare year tags
	MaxVehicleYear = 2100
)

//nolint:gochecknoglobals // Compiled once, read-only
var yearRangeTag = regexp.MustCompile(`^\d{4}-\d{4}$`)

// Generate returns one "{make}-{model}-{year}" tag per integer year in
// [yearFrom, yearTo] inclusive, in ascending year order.
func Generate(mk, model, yearFrom, yearTo string) ([]string, error) {
	from, to, err := ParseRange(yearFrom, yearTo)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, fmt.Sprintf("%s-%s-%d", mk, model, y))
	}

	return out, nil
}

// GenerateWithBase returns the year tags plus the bare make and model tags.
// This is the tag set the reconciliation flow applies to a product.
func GenerateWithBase(mk, model, yearFrom, yearTo string) ([]string, error) {
	out, err := Generate(mk, model, yearFrom, yearTo)
	if err != nil {
		return nil, err
	}

	return append(out, mk, model), nil
}

// ParseRange validates a year range and returns its integer bounds.
func ParseRange(yearFrom, yearTo string) (from, to int, err error) {
	from, err = strconv.Atoi(yearFrom)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start year %q", ErrInvalidRange, yearFrom)
	}

	to, err = strconv.Atoi(yearTo)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end year %q", ErrInvalidRange, yearTo)
	}

	if from > to {
		return 0, 0, fmt.Errorf("%w: %d > %d", ErrInvalidRange, from, to)
	}

	return from, to, nil
}

// SplitRange parses a year field that is either a single year ("2024") or a
// dashed range ("2020-2025") into its bounds.
func SplitRange(year string) (yearFrom, yearTo string) {
	if yearRangeTag.MatchString(year) {
		return year[:4], year[5:]
	}

	return year, year
}

// IsManaged reports whether a tag belongs to the managed compatibility tag
// space for the given make/model and should be replaced during
// reconciliation. Managed tags are:
//   - bare 4-digit years in the plausible vehicle range
//   - "NNNN-NNNN" year-range tags
//   - the exact make or model
//   - "{make}-{model}-{NNNN}" tags for the same make/model
func IsManaged(tag, mk, model string) bool {
	if tag == mk || tag == model {
		return true
	}

	if yearRangeTag.MatchString(tag) {
		return true
	}

	if isBareYear(tag) {
		return true
	}

	prefix := mk + "-" + model + "-"
	if len(tag) == len(prefix)+4 && tag[:len(prefix)] == prefix && isBareYear(tag[len(prefix):]) {
		return true
	}

	return false
}

func isBareYear(s string) bool {
	if len(s) != 4 {
		return false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}

	return n >= MinVehicleYear && n <= MaxVehicleYear
}
