package inference

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/adjacent/pkg/catalog"
	"github.com/papercomputeco/adjacent/pkg/graph"
)

// SystemPrompt frames the relationship-analysis task for chat providers.
const SystemPrompt = `You are a product relationship analyst. Given an anchor item and a list of candidate items, propose relationships between them.

Relationship types:
- SIMILAR_TO: the two items serve the same need in the same way.
- COMPLEMENTS: the two items are commonly used together.
- SUBSTITUTE_FOR: one item can replace the other for the same need.

Rules:
- Only use item ids from the input.
- Never relate an item to itself.
- Only propose relationships you are reasonably sure about; an empty list is a valid answer.
- Relationships between two candidates are allowed, not just anchor-candidate pairs.`

// itemView is the compact projection of an item sent to the model. Embeddings
// and counters never leave the process.
type itemView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Price    float64  `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

func viewOf(item catalog.Item) itemView {
	return itemView{
		ID:       item.ID,
		Title:    item.Title,
		Category: item.Category,
		Brand:    item.Brand,
		Tags:     item.Tags,
		Price:    item.Price,
		Currency: item.Currency,
	}
}

// UserPrompt renders the anchor and candidates as the user message.
func UserPrompt(anchor catalog.Item, candidates []catalog.Item) (string, error) {
	views := struct {
		Anchor     itemView   `json:"anchor"`
		Candidates []itemView `json:"candidates"`
	}{
		Anchor:     viewOf(anchor),
		Candidates: make([]itemView, 0, len(candidates)),
	}
	for _, c := range candidates {
		views.Candidates = append(views.Candidates, viewOf(c))
	}

	payload, err := json.Marshal(views)
	if err != nil {
		return "", fmt.Errorf("marshaling item views: %w", err)
	}

	return string(payload), nil
}

// proposalsEnvelope is the wire shape of the model's structured output.
type proposalsEnvelope struct {
	Edges []graph.Proposal `json:"edges"`
}

// ParseProposals decodes the model's JSON output. The closed schema means a
// decode failure is a provider fault, not a caller bug.
func ParseProposals(raw []byte) ([]graph.Proposal, error) {
	var env proposalsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding proposals: %v", ErrInference, err)
	}
	return env.Edges, nil
}

// ProposalSchema is the JSON schema for the structured output envelope, shared
// by providers that support schema-constrained generation.
func ProposalSchema() map[string]any {
	edgeTypes := make([]string, 0, 3)
	for _, t := range graph.EdgeTypes() {
		edgeTypes = append(edgeTypes, string(t))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"edges": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"edge_type": map[string]any{
							"type": "string",
							"enum": edgeTypes,
						},
						"from_id": map[string]any{"type": "string"},
						"to_id":   map[string]any{"type": "string"},
					},
					"required":             []string{"edge_type", "from_id", "to_id"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"edges"},
		"additionalProperties": false,
	}
}
