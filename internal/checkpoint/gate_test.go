package checkpoint

import (
	"strings"
	"testing"

	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

func newTestGate(t *testing.T) (*Gate, *pipeline.Store) {
	t.Helper()
	store := pipeline.NewStore(t.TempDir())
	return NewGate(store, nil), store
}

func createGatedPipeline(t *testing.T, store *pipeline.Store) {
	t.Helper()
	p := &pipeline.Pipeline{
		ID:     "p1",
		Name:   "test",
		Status: pipeline.StatusRunning,
		Stages: []pipeline.Stage{
			{Name: "core_builds", Status: pipeline.StageBlocked, Error: "needs review"},
			{Name: "promote", Status: pipeline.StagePending, Details: pipeline.StageDetails{
				RequiresApproval: true,
				ApprovalReason:   "applies rehearsal results",
			}},
			{Name: "refactor", Status: pipeline.StageCompleted},
		},
	}
	if _, err := store.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestDerive(t *testing.T) {
	_, store := newTestGate(t)
	createGatedPipeline(t, store)
	p, _ := store.Get("p1")

	checkpoints := Derive(p)
	if len(checkpoints) != 2 {
		t.Fatalf("Derive returned %d checkpoints, want 2", len(checkpoints))
	}

	blocked := checkpoints[0]
	if blocked.ID != "chk_p1_core_builds_0" {
		t.Errorf("blocked id = %q, want chk_p1_core_builds_0", blocked.ID)
	}
	if blocked.Status != StatusBlocked {
		t.Errorf("blocked status = %q", blocked.Status)
	}
	if blocked.Reason != "needs review" {
		t.Errorf("blocked reason = %q, want needs review", blocked.Reason)
	}

	approval := checkpoints[1]
	if approval.ID != "approval_p1_promote_1" {
		t.Errorf("approval id = %q, want approval_p1_promote_1", approval.ID)
	}
	if approval.Status != StatusRequiresApproval {
		t.Errorf("approval status = %q", approval.Status)
	}
	if !strings.Contains(approval.Name, "promote") {
		t.Errorf("approval name = %q, want stage name in it", approval.Name)
	}
}

func TestDeriveStableIDs(t *testing.T) {
	_, store := newTestGate(t)
	createGatedPipeline(t, store)
	p, _ := store.Get("p1")

	first := Derive(p)
	second := Derive(p)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("checkpoint id changed between derivations: %q vs %q", first[i].ID, second[i].ID)
		}
	}
}

func TestApprove(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	if err := g.Approve("p1", "chk_p1_core_builds_0", "reviewed"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	p, _ := store.Get("p1")
	s := p.FindStage("core_builds")
	if s.Status != pipeline.StagePending {
		t.Errorf("stage status = %q, want pending", s.Status)
	}
	if s.Error != "" {
		t.Errorf("stage error = %q, want cleared", s.Error)
	}

	// The checkpoint disappears once the condition is resolved.
	for _, c := range Derive(p) {
		if c.ID == "chk_p1_core_builds_0" {
			t.Error("resolved checkpoint still derived")
		}
	}
}

func TestApproveTwice(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	if err := g.Approve("p1", "chk_p1_core_builds_0", ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	err := g.Approve("p1", "chk_p1_core_builds_0", "")
	if !errs.IsNotFound(err) {
		t.Errorf("second Approve = %v, want NotFoundError", err)
	}
}

func TestApproveUnknownCheckpoint(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	err := g.Approve("p1", "chk_p1_bogus_9", "")
	if !errs.IsNotFound(err) {
		t.Fatalf("Approve = %v, want NotFoundError", err)
	}

	// Nothing was mutated.
	p, _ := store.Get("p1")
	if p.FindStage("core_builds").Status != pipeline.StageBlocked {
		t.Error("unrelated stage mutated by failed approve")
	}
}

func TestReject(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	if err := g.Reject("p1", "chk_p1_core_builds_0", "not acceptable"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	p, _ := store.Get("p1")
	s := p.FindStage("core_builds")
	if s.Status != pipeline.StageFailed {
		t.Errorf("stage status = %q, want failed", s.Status)
	}
	if s.Error != "Checkpoint rejected by user" {
		t.Errorf("stage error = %q", s.Error)
	}
	if s.CompletedAt == "" {
		t.Error("CompletedAt should be set")
	}
}

func TestApprovalCheckpointApprove(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	if err := g.Approve("p1", "approval_p1_promote_1", "ship it"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	p, _ := store.Get("p1")
	s := p.FindStage("promote")
	if s.Status != pipeline.StagePending {
		t.Errorf("stage status = %q, want pending", s.Status)
	}
	if s.Details.RequiresApproval {
		t.Error("RequiresApproval still set after approval")
	}
}

func TestOverride(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	if err := g.Override("p1", "chk_p1_core_builds_0", "verified manually"); err != nil {
		t.Fatalf("Override: %v", err)
	}

	p, _ := store.Get("p1")
	s := p.FindStage("core_builds")
	if s.Status != pipeline.StageCompleted {
		t.Errorf("stage status = %q, want completed", s.Status)
	}
	if s.Details.OverrideReason != "verified manually" {
		t.Errorf("OverrideReason = %q", s.Details.OverrideReason)
	}
	if !s.Details.OverriddenByUser {
		t.Error("OverriddenByUser should be set")
	}
	if s.Details.OverrideTimestamp == "" {
		t.Error("OverrideTimestamp should be set")
	}
}

func TestOverrideRequiresReason(t *testing.T) {
	g, store := newTestGate(t)
	createGatedPipeline(t, store)

	err := g.Override("p1", "chk_p1_core_builds_0", "")
	if !errs.IsValidation(err) {
		t.Fatalf("Override = %v, want ValidationError", err)
	}
	p, _ := store.Get("p1")
	if p.FindStage("core_builds").Status != pipeline.StageBlocked {
		t.Error("stage mutated by rejected override")
	}
}
