package edges

import "errors"

// ErrNotFound is returned when an edge does not exist in the store.
var ErrNotFound = errors.New("edge not found")
