package stage

import (
	"testing"

	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

func TestStartCompleteLifecycle(t *testing.T) {
	s := &pipeline.Stage{Name: "plan", Status: pipeline.StagePending}

	if err := Start(s); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status != pipeline.StageRunning {
		t.Errorf("status = %q, want running", s.Status)
	}
	if s.StartedAt == "" {
		t.Error("StartedAt should be set")
	}

	if err := Complete(s); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if s.Status != pipeline.StageCompleted {
		t.Errorf("status = %q, want completed", s.Status)
	}
	if s.CompletedAt == "" {
		t.Error("CompletedAt should be set")
	}
}

func TestStartNonPending(t *testing.T) {
	for _, status := range []string{
		pipeline.StageRunning,
		pipeline.StageCompleted,
		pipeline.StageFailed,
		pipeline.StageBlocked,
		pipeline.StageSkipped,
	} {
		s := &pipeline.Stage{Name: "plan", Status: status}
		if err := Start(s); !errs.IsValidation(err) {
			t.Errorf("Start from %s = %v, want ValidationError", status, err)
		}
		if s.Status != status {
			t.Errorf("status mutated to %q on rejected Start", s.Status)
		}
	}
}

func TestStartRequiresApproval(t *testing.T) {
	s := &pipeline.Stage{Name: "promote", Status: pipeline.StagePending}
	s.Details.RequiresApproval = true

	if err := Start(s); !errs.IsValidation(err) {
		t.Fatalf("Start = %v, want ValidationError", err)
	}
	if s.Status != pipeline.StagePending {
		t.Errorf("status = %q, want pending", s.Status)
	}

	// An approval decision clears the flag and the stage can run.
	s.Details.RequiresApproval = false
	if err := Start(s); err != nil {
		t.Fatalf("Start after approval: %v", err)
	}
}

func TestCompleteWithBlockingFindings(t *testing.T) {
	s := &pipeline.Stage{Name: "core_builds", Status: pipeline.StageRunning}
	s.AddBlockingFinding("SF-1")

	if err := Complete(s); !errs.IsValidation(err) {
		t.Fatalf("Complete = %v, want ValidationError", err)
	}
	if s.Status != pipeline.StageRunning {
		t.Errorf("status = %q, want running", s.Status)
	}
}

func TestFail(t *testing.T) {
	s := &pipeline.Stage{Name: "plan", Status: pipeline.StageRunning}

	if err := Fail(s, "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if s.Status != pipeline.StageFailed {
		t.Errorf("status = %q, want failed", s.Status)
	}
	if s.Error != "boom" {
		t.Errorf("Error = %q, want boom", s.Error)
	}
	if s.CompletedAt == "" {
		t.Error("CompletedAt should be set")
	}

	if err := Fail(s, "again"); !errs.IsValidation(err) {
		t.Errorf("Fail on failed stage = %v, want ValidationError", err)
	}
}

func TestBlockUnblock(t *testing.T) {
	s := &pipeline.Stage{Name: "plan", Status: pipeline.StageRunning}

	if err := Block(s, "needs review"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if s.Status != pipeline.StageBlocked {
		t.Errorf("status = %q, want blocked", s.Status)
	}
	if s.Error != "needs review" {
		t.Errorf("Error = %q, want reason", s.Error)
	}

	if err := Unblock(s); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if s.Status != pipeline.StagePending {
		t.Errorf("status = %q, want pending", s.Status)
	}
	if s.Error != "" {
		t.Errorf("Error = %q, want cleared", s.Error)
	}
}

func TestUnblockWithOpenCondition(t *testing.T) {
	s := &pipeline.Stage{Name: "plan", Status: pipeline.StageBlocked}
	s.AddBlockingFinding("SF-1")
	if err := Unblock(s); !errs.IsValidation(err) {
		t.Errorf("Unblock with blocking finding = %v, want ValidationError", err)
	}

	s = &pipeline.Stage{Name: "promote", Status: pipeline.StageBlocked}
	s.Details.RequiresApproval = true
	if err := Unblock(s); !errs.IsValidation(err) {
		t.Errorf("Unblock with pending approval = %v, want ValidationError", err)
	}
}

func TestSkip(t *testing.T) {
	s := &pipeline.Stage{Name: "refactor", Status: pipeline.StagePending}
	if err := Skip(s); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if s.Status != pipeline.StageSkipped {
		t.Errorf("status = %q, want skipped", s.Status)
	}

	s = &pipeline.Stage{Name: "refactor", Status: pipeline.StageRunning}
	if err := Skip(s); !errs.IsValidation(err) {
		t.Errorf("Skip running stage = %v, want ValidationError", err)
	}
}
