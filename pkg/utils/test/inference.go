package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
	"github.com/papercomputeco/adjacent/pkg/inference"
)

// MockInference is a test inference driver that returns scripted proposals
// and records what it was called with.
type MockInference struct {
	mu sync.Mutex

	// Proposals is returned by every Infer call.
	Proposals []graph.Proposal

	// Err causes Infer to fail.
	Err error

	// Calls counts Infer invocations.
	Calls int

	// LastAnchor and LastCandidates record the most recent call.
	LastAnchor     catalog.Item
	LastCandidates []catalog.Item
}

// NewMockInference creates a mock returning the given proposals.
func NewMockInference(proposals ...graph.Proposal) *MockInference {
	return &MockInference{Proposals: proposals}
}

func (m *MockInference) Infer(_ context.Context, anchor catalog.Item, candidates []catalog.Item) ([]graph.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastAnchor = anchor
	m.LastCandidates = candidates

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Proposals, nil
}

func (m *MockInference) Close() error {
	return nil
}

var _ inference.Driver = (*MockInference)(nil)
