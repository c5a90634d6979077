package catalog

import "errors"

var (
	// ErrNotFound is returned when an item does not exist in the catalog.
	ErrNotFound = errors.New("item not found")

	// ErrUnavailable is returned when the catalog backend cannot be reached.
	ErrUnavailable = errors.New("catalog unavailable")
)
