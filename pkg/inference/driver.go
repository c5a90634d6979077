// Package inference provides the black-box relationship inference interface:
// given an anchor item and its candidates, a driver returns typed edge
// proposals. Drivers are exchangeable; callers never see provider detail
// beyond ErrInference.
package inference

import (
	"context"
	"errors"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

// ErrInference indicates the inference call itself failed: transport error,
// provider error status, or unparseable output.
var ErrInference = errors.New("inference failed")

// Driver proposes relationships between an anchor and its candidates.
type Driver interface {
	// Infer returns zero or more edge proposals. Proposals are returned as
	// produced; semantic validation happens at the caller.
	Infer(ctx context.Context, anchor catalog.Item, candidates []catalog.Item) ([]graph.Proposal, error)

	// Close releases any resources held by the driver.
	Close() error
}
