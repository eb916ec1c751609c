// Package config loads the conversion pipeline template from YAML.
package config

// Config is the root configuration document.
type Config struct {
	Pipeline Pipeline `yaml:"pipeline"`
}

// Pipeline describes the stage template new pipelines are created from.
type Pipeline struct {
	Name   string  `yaml:"name"`
	Stages []Stage `yaml:"stages"`
}

// Stage is one templated stage definition.
type Stage struct {
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	RequiresApproval bool   `yaml:"requires_approval"`
	ApprovalReason   string `yaml:"approval_reason"`
}
