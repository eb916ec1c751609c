// Package checkpoint projects human gates out of pipeline state and
// applies approval decisions back onto it. Checkpoints are never stored:
// they are derived from blocked stages and stages awaiting approval, so
// resolving the underlying condition makes the checkpoint disappear.
package checkpoint

import (
	"fmt"
	"time"

	"github.com/lucasnoah/portforge/internal/db"
	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

// Checkpoint statuses.
const (
	StatusBlocked          = "blocked"
	StatusRequiresApproval = "requires_approval"
)

// Info is one derived checkpoint awaiting a human decision.
type Info struct {
	ID        string `json:"id"`
	Stage     string `json:"stage"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Derive computes the open checkpoints for a pipeline. Blocked stages
// yield chk_ checkpoints; stages flagged as requiring approval yield
// approval_ checkpoints. The index suffix keeps ids stable for a given
// pipeline shape.
func Derive(p *pipeline.Pipeline) []Info {
	var checkpoints []Info
	for i := range p.Stages {
		s := &p.Stages[i]
		if s.Status == pipeline.StageBlocked {
			checkpoints = append(checkpoints, Info{
				ID:        fmt.Sprintf("chk_%s_%s_%d", p.ID, s.Name, i),
				Stage:     s.Name,
				Name:      fmt.Sprintf("Block in %s", s.Name),
				Status:    StatusBlocked,
				Reason:    s.Error,
				CreatedAt: s.StartedAt,
			})
		}
		if s.Details.RequiresApproval && !pipeline.Terminal(s.Status) {
			checkpoints = append(checkpoints, Info{
				ID:        fmt.Sprintf("approval_%s_%s_%d", p.ID, s.Name, i),
				Stage:     s.Name,
				Name:      fmt.Sprintf("Approval required for %s", s.Name),
				Status:    StatusRequiresApproval,
				Reason:    s.Details.ApprovalReason,
				CreatedAt: s.StartedAt,
			})
		}
	}
	return checkpoints
}

// Gate resolves derived checkpoints against the pipeline store.
type Gate struct {
	store *pipeline.Store
	audit *db.DB // optional decision log
}

// NewGate creates a checkpoint gate. audit may be nil.
func NewGate(store *pipeline.Store, audit *db.DB) *Gate {
	return &Gate{store: store, audit: audit}
}

// List returns the open checkpoints for a pipeline.
func (g *Gate) List(pipelineID string) ([]Info, error) {
	p, err := g.store.Get(pipelineID)
	if err != nil {
		return nil, err
	}
	return Derive(p), nil
}

// Approve clears a checkpoint and returns its stage to pending so work
// can resume.
func (g *Gate) Approve(pipelineID, checkpointID, reason string) error {
	err := g.resolve(pipelineID, checkpointID, func(s *pipeline.Stage) {
		s.Status = pipeline.StagePending
		s.Error = ""
	})
	if err != nil {
		return err
	}
	g.logDecision(pipelineID, checkpointID, "approve", reason)
	return nil
}

// Reject clears a checkpoint and fails its stage.
func (g *Gate) Reject(pipelineID, checkpointID, reason string) error {
	err := g.resolve(pipelineID, checkpointID, func(s *pipeline.Stage) {
		s.Status = pipeline.StageFailed
		s.Error = "Checkpoint rejected by user"
		s.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		return err
	}
	g.logDecision(pipelineID, checkpointID, "reject", reason)
	return nil
}

// Override clears a checkpoint and force-completes its stage, recording
// who pushed past the gate and why.
func (g *Gate) Override(pipelineID, checkpointID, reason string) error {
	if reason == "" {
		return errs.Validation("a reason is required to override a checkpoint")
	}
	err := g.resolve(pipelineID, checkpointID, func(s *pipeline.Stage) {
		s.Status = pipeline.StageCompleted
		s.Error = ""
		s.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		s.Details.OverrideReason = reason
		s.Details.OverriddenByUser = true
		s.Details.OverrideTimestamp = time.Now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		return err
	}
	g.logDecision(pipelineID, checkpointID, "override", reason)
	return nil
}

// resolve locates the stage behind an open checkpoint id, clears the
// gating condition, and applies the decision's stage transition. An id
// that matches no open checkpoint is NotFound and nothing is written:
// resolving the same checkpoint twice fails the second time.
func (g *Gate) resolve(pipelineID, checkpointID string, apply func(*pipeline.Stage)) error {
	_, err := g.store.Update(pipelineID, func(p *pipeline.Pipeline) error {
		for _, c := range Derive(p) {
			if c.ID != checkpointID {
				continue
			}
			s := p.FindStage(c.Stage)
			if s == nil {
				return errs.NotFound("stage", pipelineID+"/"+c.Stage)
			}
			s.Details.RequiresApproval = false
			s.Details.ApprovalReason = ""
			s.Details.BlockingSemanticFindings = nil
			apply(s)
			return nil
		}
		return errs.NotFound("checkpoint", checkpointID)
	})
	return err
}

func (g *Gate) logDecision(pipelineID, checkpointID, action, reason string) {
	if g.audit == nil {
		return
	}
	_ = g.audit.LogGateDecision(pipelineID, "checkpoint", checkpointID, action, reason)
}
