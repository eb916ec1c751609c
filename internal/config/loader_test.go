package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Pipeline.Name != "conversion" {
		t.Errorf("Name = %q, want conversion", cfg.Pipeline.Name)
	}
	if len(cfg.Pipeline.Stages) != 8 {
		t.Fatalf("default template has %d stages, want 8", len(cfg.Pipeline.Stages))
	}
	if cfg.Pipeline.Stages[0].Name != "inventory" {
		t.Errorf("first stage = %q, want inventory", cfg.Pipeline.Stages[0].Name)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default template invalid: %v", err)
	}

	var promote *Stage
	for i := range cfg.Pipeline.Stages {
		if cfg.Pipeline.Stages[i].Name == "promote" {
			promote = &cfg.Pipeline.Stages[i]
		}
	}
	if promote == nil {
		t.Fatal("promote stage missing from default template")
	}
	if !promote.RequiresApproval {
		t.Error("promote should require approval")
	}
	if promote.ApprovalReason == "" {
		t.Error("promote should carry an approval reason")
	}
}

func TestDescribeStage(t *testing.T) {
	if got := DescribeStage("rehearse"); got != "Dry run without applying changes" {
		t.Errorf("DescribeStage(rehearse) = %q", got)
	}
	if got := DescribeStage("custom_step"); got != "Process custom_step" {
		t.Errorf("DescribeStage(custom_step) = %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversion.yaml")
	content := `pipeline:
  name: shrink
  stages:
    - name: inventory
    - name: core_builds
      requires_approval: true
      approval_reason: build system changes need signoff
    - name: custom_step
      description: run the custom migration
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.Name != "shrink" {
		t.Errorf("Name = %q, want shrink", cfg.Pipeline.Name)
	}
	if len(cfg.Pipeline.Stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(cfg.Pipeline.Stages))
	}

	// Well-known stages pick up their descriptions; explicit ones win.
	if cfg.Pipeline.Stages[0].Description != "Scan and catalog source files" {
		t.Errorf("inventory description = %q", cfg.Pipeline.Stages[0].Description)
	}
	if cfg.Pipeline.Stages[2].Description != "run the custom migration" {
		t.Errorf("custom description = %q", cfg.Pipeline.Stages[2].Description)
	}
	if !cfg.Pipeline.Stages[1].RequiresApproval {
		t.Error("core_builds approval flag lost")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversion.yaml")
	content := `pipeline:
  stages:
    - name: plan
    - name: plan
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate stage names")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Pipeline: Pipeline{Stages: []Stage{{Name: ""}}}}
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unnamed stage")
	}
}
