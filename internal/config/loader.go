package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StageDescriptions maps the well-known conversion stage names to their
// human-readable descriptions.
var StageDescriptions = map[string]string{
	"overview":        "Analyze source for conversion strategy",
	"inventory":       "Scan and catalog source files",
	"plan":            "Plan conversion approach",
	"core_builds":     "Establish core build infrastructure",
	"validate":        "Validate conversion artifacts",
	"run":             "Execute conversion stages",
	"grow_from_main":  "Expand from main entry points",
	"full_tree_check": "Comprehensive tree validation",
	"rehearse":        "Dry run without applying changes",
	"promote":         "Apply rehearsal results",
	"refactor":        "Post-conversion refactoring",
}

// DescribeStage returns the description for a stage name.
func DescribeStage(name string) string {
	if d, ok := StageDescriptions[name]; ok {
		return d
	}
	return fmt.Sprintf("Process %s", name)
}

// Default returns the built-in pipeline template used when no config
// file is present. Promote is the one gate that always wants a human:
// it applies the rehearsed changes for real.
func Default() *Config {
	names := []string{
		"inventory",
		"plan",
		"core_builds",
		"grow_from_main",
		"full_tree_check",
		"rehearse",
		"promote",
		"refactor",
	}
	cfg := &Config{Pipeline: Pipeline{Name: "conversion"}}
	for _, n := range names {
		s := Stage{Name: n, Description: DescribeStage(n)}
		if n == "promote" {
			s.RequiresApproval = true
			s.ApprovalReason = "Promotion applies rehearsal results to the target repository"
		}
		cfg.Pipeline.Stages = append(cfg.Pipeline.Stages, s)
	}
	return cfg
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault looks for conversion.yaml in the working directory, then
// ~/.portforge/config.yaml, and falls back to the built-in template.
func LoadDefault() (*Config, error) {
	candidates := []string{"conversion.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".portforge", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Pipeline.Name == "" {
		cfg.Pipeline.Name = "conversion"
	}
	if len(cfg.Pipeline.Stages) == 0 {
		cfg.Pipeline.Stages = Default().Pipeline.Stages
		return
	}
	for i := range cfg.Pipeline.Stages {
		s := &cfg.Pipeline.Stages[i]
		if s.Description == "" {
			s.Description = DescribeStage(s.Name)
		}
	}
}
