package eventstream

import "errors"

// ErrNilEdgeEvent indicates a nil edge event payload was provided to a publisher.
var ErrNilEdgeEvent = errors.New("nil edge event")
