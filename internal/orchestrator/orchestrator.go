// Package orchestrator wires the stores, gates, and stage engine into
// the single facade the CLI talks to.
package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lucasnoah/portforge/internal/checkpoint"
	"github.com/lucasnoah/portforge/internal/config"
	"github.com/lucasnoah/portforge/internal/db"
	"github.com/lucasnoah/portforge/internal/decision"
	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
	"github.com/lucasnoah/portforge/internal/semantic"
	"github.com/lucasnoah/portforge/internal/stage"
)

// Orchestrator is the engine facade. All operations that take a
// pipeline id accept "" to mean the current pipeline: the explicitly
// selected one if set, otherwise the most recently touched document.
type Orchestrator struct {
	cfg       *config.Config
	pipelines *pipeline.Store
	engine    *stage.Engine
	checks    *checkpoint.Gate
	findings  *semantic.Gate
	ledger    *decision.Ledger
	audit     *db.DB // optional

	mu        sync.Mutex
	currentID string
}

// New assembles an orchestrator from its stores. audit may be nil.
func New(cfg *config.Config, pipelines *pipeline.Store, findings *semantic.Store, ledger *decision.Ledger, audit *db.DB) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		pipelines: pipelines,
		engine:    stage.NewEngine(pipelines, audit),
		checks:    checkpoint.NewGate(pipelines, audit),
		findings:  semantic.NewGate(findings, pipelines, audit),
		ledger:    ledger,
		audit:     audit,
	}
}

// Engine returns the stage engine so callers can register stage work.
func (o *Orchestrator) Engine() *stage.Engine {
	return o.engine
}

// StageInfo is the per-stage view returned by status queries.
type StageInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	StartedAt   string   `json:"started_at,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Artifacts   []string `json:"artifacts,omitempty"`
}

// PipelineStatus is the aggregate view of one pipeline.
type PipelineStatus struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	ActiveStage string            `json:"active_stage,omitempty"`
	Stages      []StageInfo       `json:"stages"`
	Checkpoints []checkpoint.Info `json:"checkpoints,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// CreatePipeline creates a new pipeline from the configured stage
// template and makes it the current pipeline.
func (o *Orchestrator) CreatePipeline(name string) (*pipeline.Pipeline, error) {
	if name == "" {
		return nil, errs.Validation("pipeline name is required")
	}

	p := &pipeline.Pipeline{
		ID:     strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Name:   name,
		Status: pipeline.StatusIdle,
	}
	for _, s := range o.cfg.Pipeline.Stages {
		p.Stages = append(p.Stages, pipeline.Stage{
			Name:        s.Name,
			Description: s.Description,
			Status:      pipeline.StagePending,
			Details: pipeline.StageDetails{
				RequiresApproval: s.RequiresApproval,
				ApprovalReason:   s.ApprovalReason,
			},
		})
	}

	created, err := o.pipelines.Create(p)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.currentID = created.ID
	o.mu.Unlock()
	_ = pipeline.WriteAtomic(o.currentPath(), []byte(created.ID+"\n"))

	if o.audit != nil {
		_ = o.audit.LogPipelineEvent(created.ID, "pipeline_created", "", name)
	}
	return created, nil
}

// currentPath is the pointer file recording the selected pipeline id,
// kept next to the pipeline documents so the selection survives across
// invocations.
func (o *Orchestrator) currentPath() string {
	return filepath.Join(o.pipelines.BaseDir(), "current")
}

// SetCurrent selects the pipeline that id-less operations target.
func (o *Orchestrator) SetCurrent(id string) error {
	if _, err := o.pipelines.Get(id); err != nil {
		return err
	}
	o.mu.Lock()
	o.currentID = id
	o.mu.Unlock()
	return pipeline.WriteAtomic(o.currentPath(), []byte(id+"\n"))
}

// resolve maps an optional pipeline id to a concrete one: the explicit
// argument, then the selected pipeline, then the most recently touched
// document.
func (o *Orchestrator) resolve(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	o.mu.Lock()
	current := o.currentID
	o.mu.Unlock()
	if current != "" {
		return current, nil
	}
	if data, err := os.ReadFile(o.currentPath()); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			if _, err := o.pipelines.Get(id); err == nil {
				return id, nil
			}
		}
	}
	p, err := o.pipelines.Latest()
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// GetStatus returns the aggregate status view for a pipeline. The
// overall status and the open checkpoints are derived fresh from the
// stage states on every call.
func (o *Orchestrator) GetStatus(id string) (*PipelineStatus, error) {
	id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	p, err := o.pipelines.Get(id)
	if err != nil {
		return nil, err
	}

	st := &PipelineStatus{
		ID:          p.ID,
		Name:        p.Name,
		Status:      p.ComputedStatus(),
		ActiveStage: p.ActiveStage,
		Checkpoints: checkpoint.Derive(p),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for i := range p.Stages {
		s := &p.Stages[i]
		st.Stages = append(st.Stages, StageInfo{
			Name:        s.Name,
			Description: s.Description,
			Status:      s.Status,
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
			Reason:      s.Error,
			Artifacts:   s.Details.Artifacts,
		})
	}
	return st, nil
}

// ListStages returns the stage views for a pipeline.
func (o *Orchestrator) ListStages(id string) ([]StageInfo, error) {
	st, err := o.GetStatus(id)
	if err != nil {
		return nil, err
	}
	return st.Stages, nil
}

// RunStage executes one stage through the engine.
func (o *Orchestrator) RunStage(id, stageName string, opts stage.RunOpts) (bool, error) {
	id, err := o.resolve(id)
	if err != nil {
		return false, err
	}
	return o.engine.Run(id, stageName, opts)
}

// SkipStage marks a pending stage skipped.
func (o *Orchestrator) SkipStage(id, stageName string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	_, err = o.pipelines.Update(id, func(p *pipeline.Pipeline) error {
		s := p.FindStage(stageName)
		if s == nil {
			return errs.NotFound("stage", id+"/"+stageName)
		}
		return stage.Skip(s)
	})
	if err != nil {
		return err
	}
	if o.audit != nil {
		_ = o.audit.LogPipelineEvent(id, "stage_skipped", stageName, "")
	}
	return nil
}

// ListCheckpoints returns the open checkpoints for a pipeline.
func (o *Orchestrator) ListCheckpoints(id string) ([]checkpoint.Info, error) {
	id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	return o.checks.List(id)
}

// ApproveCheckpoint approves an open checkpoint.
func (o *Orchestrator) ApproveCheckpoint(id, checkpointID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.checks.Approve(id, checkpointID, reason)
}

// RejectCheckpoint rejects an open checkpoint.
func (o *Orchestrator) RejectCheckpoint(id, checkpointID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.checks.Reject(id, checkpointID, reason)
}

// OverrideCheckpoint force-completes the stage behind a checkpoint.
func (o *Orchestrator) OverrideCheckpoint(id, checkpointID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.checks.Override(id, checkpointID, reason)
}

// AddFinding records a semantic finding against a pipeline stage.
func (o *Orchestrator) AddFinding(id, stageName string, f semantic.Finding) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.findings.Attach(id, stageName, f)
}

// ListFindings returns a pipeline's semantic findings.
func (o *Orchestrator) ListFindings(id string) ([]semantic.Finding, error) {
	id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	return o.findings.List(id)
}

// AcceptFinding accepts a semantic finding.
func (o *Orchestrator) AcceptFinding(id, findingID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.findings.Accept(id, findingID, reason)
}

// RejectFinding rejects a semantic finding.
func (o *Orchestrator) RejectFinding(id, findingID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.findings.Reject(id, findingID, reason)
}

// DeferFinding postpones the decision on a semantic finding.
func (o *Orchestrator) DeferFinding(id, findingID, reason string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	return o.findings.Defer(id, findingID, reason)
}

// SemanticSummary returns the aggregate finding counts and health score.
func (o *Orchestrator) SemanticSummary(id string) (semantic.Summary, error) {
	id, err := o.resolve(id)
	if err != nil {
		return semantic.Summary{}, err
	}
	return o.findings.Summary(id)
}

// AddDecision appends a new active decision to the ledger.
func (o *Orchestrator) AddDecision(title, value, reason string) (*decision.Decision, error) {
	return o.ledger.Add(title, value, reason)
}

// ListDecisions returns all ledger entries.
func (o *Orchestrator) ListDecisions() ([]decision.Decision, error) {
	return o.ledger.List()
}

// GetDecision returns one ledger entry by id.
func (o *Orchestrator) GetDecision(id string) (*decision.Decision, error) {
	return o.ledger.Get(id)
}

// OverrideDecision supersedes an active decision and reports whether
// the conversion plan went stale.
func (o *Orchestrator) OverrideDecision(id, newValue, reason string, autoReplan bool) (*decision.OverrideResult, error) {
	res, err := o.ledger.Override(id, newValue, reason, autoReplan)
	if err != nil {
		return nil, err
	}
	if o.audit != nil {
		_ = o.audit.LogDecisionOverride(res.OldDecisionID, res.NewDecisionID,
			res.OldFingerprint, res.NewFingerprint, res.PlanIsStale, reason)
	}
	return res, nil
}

// ListPipelines returns all pipelines, oldest first.
func (o *Orchestrator) ListPipelines() ([]pipeline.Pipeline, error) {
	return o.pipelines.List()
}

// DeletePipeline removes a pipeline document.
func (o *Orchestrator) DeletePipeline(id string) error {
	id, err := o.resolve(id)
	if err != nil {
		return err
	}
	if err := o.pipelines.Delete(id); err != nil {
		return err
	}
	o.mu.Lock()
	if o.currentID == id {
		o.currentID = ""
	}
	o.mu.Unlock()
	if data, err := os.ReadFile(o.currentPath()); err == nil && strings.TrimSpace(string(data)) == id {
		_ = os.Remove(o.currentPath())
	}
	return nil
}

// History returns the recorded lifecycle events for a pipeline.
func (o *Orchestrator) History(id string, limit int) ([]db.PipelineEvent, error) {
	id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	if o.audit == nil {
		return nil, nil
	}
	return o.audit.GetPipelineHistory(id, limit)
}

// GateHistory returns the recorded human gate decisions for a pipeline.
func (o *Orchestrator) GateHistory(id string, limit int) ([]db.GateDecision, error) {
	id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}
	if o.audit == nil {
		return nil, nil
	}
	return o.audit.GetGateDecisions(id, limit)
}
