package eventstream

import (
	"time"

	"github.com/papercomputeco/adjacent/pkg/graph"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEdgeMaterialized is emitted after the worker creates or
	// reinforces an edge.
	EventTypeEdgeMaterialized = "adjacent.edge.materialized"
)

// EdgeMaterializedEvent is a transport-neutral event payload for a
// materialized edge. Publishing is fire-and-forget: a lost event never fails
// the job that produced it.
type EdgeMaterializedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Job           JobMeta      `json:"job"`
	Action        graph.Action `json:"action"`
	Edge          graph.Edge   `json:"edge"`
}

// EventSource identifies the process that materialized the edge.
type EventSource struct {
	Project  string `json:"project,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// JobMeta captures the enrichment job the edge was materialized under.
type JobMeta struct {
	JobID    string `json:"job_id"`
	AnchorID string `json:"anchor_id"`
	TraceID  string `json:"trace_id,omitempty"`
}
