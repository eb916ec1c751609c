package config

import "fmt"

// Validate checks structural constraints on a config: every stage needs
// a name and names must be unique within the pipeline.
func Validate(cfg *Config) error {
	seen := make(map[string]bool)
	for i, s := range cfg.Pipeline.Stages {
		if s.Name == "" {
			return fmt.Errorf("stage %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
