package graph_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

var _ = Describe("Gate", func() {
	var gate *graph.Gate

	BeforeEach(func() {
		gate = graph.NewGate(graph.GateConfig{
			Enabled:       true,
			Threshold:     5,
			MaxConfidence: 0.70,
		})
	})

	It("admits a pair with no existing edges", func() {
		Expect(gate.Admit(nil)).To(BeTrue())
	})

	It("admits a weakly evidenced pair", func() {
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 1, MaxConfidence: 0.55})).To(BeTrue())
	})

	It("rejects once the anchor count reaches the threshold, regardless of confidence", func() {
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 5, MaxConfidence: 0.0})).To(BeFalse())
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 12, MaxConfidence: 0.1})).To(BeFalse())
	})

	It("rejects once confidence reaches the maximum, regardless of anchor count", func() {
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 1, MaxConfidence: 0.70})).To(BeFalse())
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 0, MaxConfidence: 0.95})).To(BeFalse())
	})

	It("admits just below both limits", func() {
		Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 4, MaxConfidence: 0.6999})).To(BeTrue())
	})

	Context("with reinforcement disabled", func() {
		BeforeEach(func() {
			gate = graph.NewGate(graph.GateConfig{
				Enabled:       false,
				Threshold:     5,
				MaxConfidence: 0.70,
			})
		})

		It("still admits a pair with no existing edges", func() {
			Expect(gate.Admit(nil)).To(BeTrue())
		})

		It("rejects any pair with an existing edge", func() {
			Expect(gate.Admit(&graph.PairStats{MaxAnchorCount: 1, MaxConfidence: 0.1})).To(BeFalse())
		})
	})
})
