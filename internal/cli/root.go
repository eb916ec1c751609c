package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/portforge/internal/config"
	"github.com/lucasnoah/portforge/internal/db"
	"github.com/lucasnoah/portforge/internal/decision"
	"github.com/lucasnoah/portforge/internal/orchestrator"
	"github.com/lucasnoah/portforge/internal/pipeline"
	"github.com/lucasnoah/portforge/internal/semantic"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "portforge",
	Short: "portforge — human-gated code conversion pipelines",
	Long: `portforge orchestrates AI-assisted code conversions through staged
pipelines with human checkpoints, semantic risk gates, and a versioned
decision ledger.

All state is stored in ~/.portforge/ (SQLite for history, JSON for
pipeline and finding documents).`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(semanticCmd)
	rootCmd.AddCommand(decisionCmd)
	rootCmd.AddCommand(dbCmd)
}

// newOrchestrator wires the default stores into an engine facade. The
// audit database is best-effort: the engine runs without it if it
// cannot be opened.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	pipelines, err := pipeline.DefaultStore()
	if err != nil {
		return nil, fmt.Errorf("open pipeline store: %w", err)
	}
	findings, err := semantic.DefaultStore()
	if err != nil {
		return nil, fmt.Errorf("open findings store: %w", err)
	}
	ledger, err := decision.DefaultLedger()
	if err != nil {
		return nil, fmt.Errorf("open decision ledger: %w", err)
	}
	audit := openAudit()
	return orchestrator.New(cfg, pipelines, findings, ledger, audit), nil
}

func openAudit() *db.DB {
	path, err := db.DefaultDBPath()
	if err != nil {
		return nil
	}
	database, err := db.Open(path)
	if err != nil {
		return nil
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil
	}
	return database
}
