// Package semantic tracks behavior-divergence findings raised during a
// conversion and the human decisions that resolve them. A blocking
// finding halts its pipeline stage until someone accepts, rejects, or
// defers it.
package semantic

// Equivalence levels. The level names the risk that converted code
// diverges from the original behavior, so "high" means high risk.
const (
	LevelHigh    = "high"
	LevelMedium  = "medium"
	LevelLow     = "low"
	LevelUnknown = "unknown"
)

// Finding statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusBlocking = "blocking"
)

// Finding is one recorded behavior-divergence risk.
type Finding struct {
	ID               string   `json:"id"`
	TaskID           string   `json:"task_id,omitempty"`
	Files            []string `json:"files,omitempty"`
	EquivalenceLevel string   `json:"equivalence_level"`
	RiskFlags        []string `json:"risk_flags,omitempty"`
	Status           string   `json:"status"`
	Description      string   `json:"description,omitempty"`
	EvidenceBefore   string   `json:"evidence_before,omitempty"`
	EvidenceAfter    string   `json:"evidence_after,omitempty"`
	DecisionReason   string   `json:"decision_reason,omitempty"`
	CheckpointID     string   `json:"checkpoint_id,omitempty"`
	BlocksPipeline   bool     `json:"blocks_pipeline,omitempty"`
}

// Summary aggregates a pipeline's findings for reporting.
type Summary struct {
	Total              int     `json:"total"`
	High               int     `json:"high"`
	Medium             int     `json:"medium"`
	Low                int     `json:"low"`
	Unknown            int     `json:"unknown"`
	Pending            int     `json:"pending"`
	Accepted           int     `json:"accepted"`
	Rejected           int     `json:"rejected"`
	Blocking           int     `json:"blocking"`
	OverallHealthScore float64 `json:"overall_health_score"`
}

// Resolved reports whether a finding has received a final decision.
// Deferred findings go back to pending and stay unresolved.
func (f *Finding) Resolved() bool {
	return f.Status == StatusAccepted || f.Status == StatusRejected
}
