package semantic

import (
	"fmt"
	"time"

	"github.com/lucasnoah/portforge/internal/db"
	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
	"github.com/lucasnoah/portforge/internal/stage"
)

// Gate applies human decisions to semantic findings and keeps the
// owning pipeline's stage bookkeeping consistent with them. Accepting
// the last blocker on a stage unblocks it; rejecting a blocker fails
// every stage it was holding.
type Gate struct {
	findings  *Store
	pipelines *pipeline.Store
	audit     *db.DB // optional decision log
}

// NewGate creates a semantic gate. audit may be nil.
func NewGate(findings *Store, pipelines *pipeline.Store, audit *db.DB) *Gate {
	return &Gate{findings: findings, pipelines: pipelines, audit: audit}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Attach records a finding against a pipeline stage. A blocking finding
// moves the stage to blocked and joins its blocking set; re-attaching
// an existing id updates the stored finding in place.
func (g *Gate) Attach(pipelineID, stageName string, f Finding) error {
	if f.ID == "" {
		return errs.Validation("finding id is required")
	}
	if f.EquivalenceLevel == "" {
		f.EquivalenceLevel = LevelUnknown
	}
	if f.BlocksPipeline {
		f.Status = StatusBlocking
	} else if f.Status == "" {
		f.Status = StatusPending
	}

	if err := g.findings.Add(pipelineID, f); err != nil {
		return err
	}

	if !f.BlocksPipeline {
		return nil
	}

	_, err := g.pipelines.Update(pipelineID, func(p *pipeline.Pipeline) error {
		s := p.FindStage(stageName)
		if s == nil {
			return errs.NotFound("stage", pipelineID+"/"+stageName)
		}
		s.AddBlockingFinding(f.ID)
		if s.Status != pipeline.StageBlocked {
			reason := fmt.Sprintf("blocking semantic finding %s", f.ID)
			if err := stage.Block(s, reason); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// Accept resolves a finding as an accepted divergence. An empty reason
// gets a timestamped default. If this was the last blocker on a blocked
// stage, the stage returns to pending.
func (g *Gate) Accept(pipelineID, findingID, reason string) error {
	if reason == "" {
		reason = "Accepted by user at " + nowStamp()
	}
	if err := g.resolve(pipelineID, findingID, StatusAccepted, reason); err != nil {
		return err
	}

	_, err := g.pipelines.Update(pipelineID, func(p *pipeline.Pipeline) error {
		for i := range p.Stages {
			s := &p.Stages[i]
			if !s.RemoveBlockingFinding(findingID) {
				continue
			}
			if s.Status == pipeline.StageBlocked &&
				len(s.Details.BlockingSemanticFindings) == 0 &&
				!s.Details.RequiresApproval {
				if err := stage.Unblock(s); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.logDecision(pipelineID, findingID, "accept", reason)
	return nil
}

// Reject resolves a finding as an unacceptable divergence. A reason is
// required. Every stage the finding was blocking is marked failed so
// the pipeline cannot proceed past the rejected conversion.
func (g *Gate) Reject(pipelineID, findingID, reason string) error {
	if reason == "" {
		return errs.Validation("a reason is required to reject a semantic finding")
	}
	if err := g.resolve(pipelineID, findingID, StatusRejected, reason); err != nil {
		return err
	}

	_, err := g.pipelines.Update(pipelineID, func(p *pipeline.Pipeline) error {
		for i := range p.Stages {
			s := &p.Stages[i]
			if !s.RemoveBlockingFinding(findingID) {
				continue
			}
			// Blocked is not a failable state in the machine, so the
			// rejection writes the terminal state directly.
			s.Status = pipeline.StageFailed
			s.Error = "Semantic risk rejected: " + reason
			s.CompletedAt = nowStamp()
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.logDecision(pipelineID, findingID, "reject", reason)
	return nil
}

// Defer postpones the decision on a finding. The finding returns to
// pending with a deferral note, but any block it holds stays in place
// until a real accept or reject arrives.
func (g *Gate) Defer(pipelineID, findingID, reason string) error {
	if reason == "" {
		reason = "Deferred for later review at " + nowStamp()
	}

	found := false
	_, err := g.findings.Update(pipelineID, func(findings []Finding) ([]Finding, error) {
		for i := range findings {
			f := &findings[i]
			if f.ID != findingID || f.Resolved() {
				continue
			}
			f.Status = StatusPending
			f.DecisionReason = reason
			found = true
			return findings, nil
		}
		return nil, errs.NotFound("finding", findingID)
	})
	if err != nil {
		return err
	}
	if found {
		g.logDecision(pipelineID, findingID, "defer", reason)
	}
	return nil
}

// Summary returns the aggregate view of a pipeline's findings.
func (g *Gate) Summary(pipelineID string) (Summary, error) {
	findings, err := g.findings.List(pipelineID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(findings), nil
}

// List returns a pipeline's findings.
func (g *Gate) List(pipelineID string) ([]Finding, error) {
	return g.findings.List(pipelineID)
}

// resolve moves an unresolved finding to a final status. A finding that
// is absent or already accepted/rejected is NotFound and nothing is
// written.
func (g *Gate) resolve(pipelineID, findingID, status, reason string) error {
	_, err := g.findings.Update(pipelineID, func(findings []Finding) ([]Finding, error) {
		for i := range findings {
			f := &findings[i]
			if f.ID != findingID || f.Resolved() {
				continue
			}
			f.Status = status
			f.DecisionReason = reason
			return findings, nil
		}
		return nil, errs.NotFound("finding", findingID)
	})
	return err
}

func (g *Gate) logDecision(pipelineID, findingID, action, reason string) {
	if g.audit == nil {
		return
	}
	_ = g.audit.LogGateDecision(pipelineID, "finding", findingID, action, reason)
}
