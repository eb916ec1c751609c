// Package stage implements the per-stage state machine and the runner
// that drives a stage through start → work → completed/failed.
package stage

import (
	"time"

	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Start marks a pending stage running and stamps started_at. A stage
// awaiting human approval cannot start until its checkpoint is
// resolved.
func Start(s *pipeline.Stage) error {
	if s.Status != pipeline.StagePending {
		return errs.Validation("stage %q is %s; only a pending stage can start", s.Name, s.Status)
	}
	if s.Details.RequiresApproval {
		return errs.Validation("stage %q requires approval before it can run", s.Name)
	}
	s.Status = pipeline.StageRunning
	s.StartedAt = now()
	s.Error = ""
	return nil
}

// Complete marks a running stage completed. A stage holding blocking
// findings can never complete.
func Complete(s *pipeline.Stage) error {
	if s.Status != pipeline.StageRunning {
		return errs.Validation("stage %q is %s; only a running stage can complete", s.Name, s.Status)
	}
	if len(s.Details.BlockingSemanticFindings) > 0 {
		return errs.Validation("stage %q has unresolved blocking findings", s.Name)
	}
	s.Status = pipeline.StageCompleted
	s.CompletedAt = now()
	return nil
}

// Fail marks a running stage failed with the failure detail. A stage
// whose work raised is always left failed, never reverted to pending;
// retry is an explicit re-invocation by the caller.
func Fail(s *pipeline.Stage, reason string) error {
	if s.Status != pipeline.StageRunning {
		return errs.Validation("stage %q is %s; only a running stage can fail", s.Name, s.Status)
	}
	s.Status = pipeline.StageFailed
	s.Error = reason
	s.CompletedAt = now()
	return nil
}

// Block moves a pending or running stage to blocked with a reason.
func Block(s *pipeline.Stage, reason string) error {
	if s.Status != pipeline.StagePending && s.Status != pipeline.StageRunning {
		return errs.Validation("stage %q is %s; only a pending or running stage can block", s.Name, s.Status)
	}
	s.Status = pipeline.StageBlocked
	s.Error = reason
	return nil
}

// Unblock returns a blocked stage to pending so the scheduler may
// re-run it. The blocking condition must already be cleared.
func Unblock(s *pipeline.Stage) error {
	if s.Status != pipeline.StageBlocked {
		return errs.Validation("stage %q is %s; only a blocked stage can unblock", s.Name, s.Status)
	}
	if len(s.Details.BlockingSemanticFindings) > 0 || s.Details.RequiresApproval {
		return errs.Validation("stage %q still has an unresolved blocking condition", s.Name)
	}
	s.Status = pipeline.StagePending
	s.Error = ""
	return nil
}

// Skip moves a pending stage to the terminal skipped state.
func Skip(s *pipeline.Stage) error {
	if s.Status != pipeline.StagePending {
		return errs.Validation("stage %q is %s; only a pending stage can be skipped", s.Name, s.Status)
	}
	s.Status = pipeline.StageSkipped
	s.CompletedAt = now()
	return nil
}
