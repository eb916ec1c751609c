package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/portforge/internal/stage"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Run and inspect pipeline stages",
}

var stageListCmd = &cobra.Command{
	Use:   "list [pipeline-id]",
	Short: "List the stages of a pipeline",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		stages, err := o.ListStages(id)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-18s %-10s %s\n", "STAGE", "STATUS", "DESCRIPTION")
		fmt.Fprintf(w, "%-18s %-10s %s\n",
			strings.Repeat("-", 18),
			strings.Repeat("-", 10),
			strings.Repeat("-", 11))
		for _, s := range stages {
			fmt.Fprintf(w, "%-18s %-10s %s\n", s.Name, s.Status, s.Description)
			if s.Reason != "" {
				fmt.Fprintf(w, "%-18s %-10s %s\n", "", "", s.Reason)
			}
		}
		return nil
	},
}

var stageRunCmd = &cobra.Command{
	Use:   "run <stage-name>",
	Short: "Run a stage of the current pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		o.Engine().SetProgress(os.Stderr)

		id, _ := cmd.Flags().GetString("pipeline")
		limit, _ := cmd.Flags().GetInt("limit")
		rehearse, _ := cmd.Flags().GetBool("rehearse")

		ok, err := o.RunStage(id, args[0], stage.RunOpts{Limit: limit, Rehearse: rehearse})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Stage %s failed; see pipeline status for details\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stage %s completed\n", args[0])
		return nil
	},
}

var stageSkipCmd = &cobra.Command{
	Use:   "skip <stage-name>",
	Short: "Skip a pending stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		if err := o.SkipStage(id, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stage %s skipped\n", args[0])
		return nil
	},
}

func init() {
	stageCmd.AddCommand(stageListCmd)
	stageCmd.AddCommand(stageRunCmd)
	stageCmd.AddCommand(stageSkipCmd)

	stageRunCmd.Flags().String("pipeline", "", "Pipeline id (defaults to the current pipeline)")
	stageRunCmd.Flags().Int("limit", 0, "Cap the amount of work the stage performs")
	stageRunCmd.Flags().Bool("rehearse", false, "Dry run without applying changes")
	stageSkipCmd.Flags().String("pipeline", "", "Pipeline id (defaults to the current pipeline)")
}
