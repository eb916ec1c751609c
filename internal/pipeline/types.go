package pipeline

// Stage status values.
const (
	StagePending   = "pending"
	StageRunning   = "running"
	StageCompleted = "completed"
	StageFailed    = "failed"
	StageBlocked   = "blocked"
	StageSkipped   = "skipped"
)

// Pipeline status values derived by ComputeStatus.
const (
	StatusIdle      = "idle"
	StatusRunning   = "running"
	StatusBlocked   = "blocked"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Pipeline is the top-level persisted document for a single conversion
// run. Stage order is fixed at creation and never reordered.
type Pipeline struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"` // base status; the overall status is derived per query
	ActiveStage string  `json:"active_stage,omitempty"`
	Stages      []Stage `json:"stages"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Stage is one unit of pipeline work. Name is unique within its
// pipeline and acts as the stage's key.
type Stage struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	StartedAt   string       `json:"started_at,omitempty"`
	CompletedAt string       `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"` // doubles as the "why blocked" reason
	Details     StageDetails `json:"details"`
}

// StageDetails holds the gate bookkeeping attached to a stage.
type StageDetails struct {
	Artifacts                []string `json:"artifacts,omitempty"`
	BlockingSemanticFindings []string `json:"blocking_semantic_findings,omitempty"`
	RequiresApproval         bool     `json:"requires_approval,omitempty"`
	ApprovalReason           string   `json:"approval_reason,omitempty"`
	OverrideReason           string   `json:"override_reason,omitempty"`
	OverriddenByUser         bool     `json:"overridden_by_user,omitempty"`
	OverrideTimestamp        string   `json:"override_timestamp,omitempty"`
}

// FindStage returns a pointer to the stage with the given name, or nil.
func (p *Pipeline) FindStage(name string) *Stage {
	for i := range p.Stages {
		if p.Stages[i].Name == name {
			return &p.Stages[i]
		}
	}
	return nil
}

// HasBlockingFinding reports whether the stage's blocking set contains id.
func (s *Stage) HasBlockingFinding(id string) bool {
	for _, f := range s.Details.BlockingSemanticFindings {
		if f == id {
			return true
		}
	}
	return false
}

// AddBlockingFinding adds id to the stage's blocking set if not present.
func (s *Stage) AddBlockingFinding(id string) {
	if s.HasBlockingFinding(id) {
		return
	}
	s.Details.BlockingSemanticFindings = append(s.Details.BlockingSemanticFindings, id)
}

// RemoveBlockingFinding removes id from the stage's blocking set and
// reports whether it was present.
func (s *Stage) RemoveBlockingFinding(id string) bool {
	for i, f := range s.Details.BlockingSemanticFindings {
		if f == id {
			s.Details.BlockingSemanticFindings = append(
				s.Details.BlockingSemanticFindings[:i],
				s.Details.BlockingSemanticFindings[i+1:]...)
			return true
		}
	}
	return false
}

// Terminal reports whether a stage status is terminal.
func Terminal(status string) bool {
	return status == StageCompleted || status == StageFailed || status == StageSkipped
}
