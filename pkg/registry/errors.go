package registry

import "errors"

var (
	// ErrNoActiveFile means no file is waiting to be processed. Benign:
	// the pipeline reports it as an informational success.
	ErrNoActiveFile = errors.New("no active file to process")

	// ErrFileNotFound is returned when a file id does not exist
	ErrFileNotFound = errors.New("uploaded file not found")

	// ErrEntryNotFound is returned when an entry id does not exist
	ErrEntryNotFound = errors.New("compatibility entry not found")

	// ErrDuplicateEntry is returned when a new entry overlaps an existing
	// entry's year range for the same shop/make/model and shares a product
	ErrDuplicateEntry = errors.New("duplicate compatibility entry")
)
