package graph

// Default reinforcement gate settings.
const (
	DefaultReinforcementThreshold     = 5
	DefaultReinforcementMaxConfidence = 0.70
)

// GateConfig configures the reinforcement gate.
type GateConfig struct {
	// Enabled allows a pair with existing edges to be re-admitted for
	// inference while it is still weakly evidenced. When false, any existing
	// edge between the pair rejects the candidate outright (legacy mode).
	Enabled bool

	// Threshold rejects reinforcement once any edge between the pair has
	// accumulated this many distinct anchors.
	Threshold int

	// MaxConfidence rejects reinforcement once any edge between the pair has
	// reached this confidence.
	MaxConfidence float64
}

// DefaultGateConfig returns the standard gate settings with reinforcement
// enabled.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Enabled:       true,
		Threshold:     DefaultReinforcementThreshold,
		MaxConfidence: DefaultReinforcementMaxConfidence,
	}
}

// Gate is the admission policy deciding whether a similarity candidate is
// worth sending for (re-)inference. It is pure: decisions depend only on the
// aggregated pair metadata, never on store access.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Admit decides whether the anchor/candidate pair should be submitted for
// inference. stats carries the pair's metadata aggregated by max across all
// edge types; nil stats means no edge of any kind exists yet, which is a pure
// creation opportunity and always admits.
//
// Aggregating by max prevents re-paying inference cost once any relationship
// between the pair has matured, while still converging fast on
// weakly-evidenced pairs.
func (g *Gate) Admit(stats *PairStats) bool {
	if stats == nil {
		return true
	}

	if !g.config.Enabled {
		return false
	}

	return stats.MaxAnchorCount < g.config.Threshold &&
		stats.MaxConfidence < g.config.MaxConfidence
}
