package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/portforge/internal/semantic"
)

var semanticCmd = &cobra.Command{
	Use:   "semantic",
	Short: "Review and resolve semantic risk findings",
}

var semanticListCmd = &cobra.Command{
	Use:   "list [pipeline-id]",
	Short: "List the semantic findings of a pipeline",
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
		findings, err := o.ListFindings(id)
		if err != nil {
			return err
		}
		if len(findings) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No semantic findings.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-14s %-8s %-10s %s\n", "ID", "LEVEL", "STATUS", "DESCRIPTION")
		fmt.Fprintf(w, "%-14s %-8s %-10s %s\n",
			strings.Repeat("-", 14),
			strings.Repeat("-", 8),
			strings.Repeat("-", 10),
			strings.Repeat("-", 11))
		for _, f := range findings {
			fmt.Fprintf(w, "%-14s %-8s %-10s %s\n", f.ID, f.EquivalenceLevel, f.Status, f.Description)
		}
		return nil
	},
}

var semanticAddCmd = &cobra.Command{
	Use:   "add <stage-name> <finding-id>",
	Short: "Record a semantic finding against a stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		level, _ := cmd.Flags().GetString("level")
		desc, _ := cmd.Flags().GetString("description")
		blocks, _ := cmd.Flags().GetBool("blocks")
		files, _ := cmd.Flags().GetStringSlice("file")

		f := semantic.Finding{
			ID:               args[1],
			Files:            files,
			EquivalenceLevel: level,
			Description:      desc,
			BlocksPipeline:   blocks,
		}
		if err := o.AddFinding(id, args[0], f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded finding %s on stage %s\n", args[1], args[0])
		return nil
	},
}

var semanticAcceptCmd = &cobra.Command{
	Use:   "accept <finding-id>",
	Short: "Accept a finding as a tolerable divergence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.AcceptFinding(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Finding %s accepted\n", args[0])
		return nil
	},
}

var semanticRejectCmd = &cobra.Command{
	Use:   "reject <finding-id>",
	Short: "Reject a finding and fail the stages it blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.RejectFinding(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Finding %s rejected\n", args[0])
		return nil
	},
}

var semanticDeferCmd = &cobra.Command{
	Use:   "defer <finding-id>",
	Short: "Postpone the decision on a finding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.DeferFinding(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Finding %s deferred\n", args[0])
		return nil
	},
}

var semanticSummaryCmd = &cobra.Command{
	Use:   "summary [pipeline-id]",
	Short: "Show aggregate finding counts and the health score",
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
		s, err := o.SemanticSummary(id)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Findings: %d total\n", s.Total)
		fmt.Fprintf(w, "  By level:  high=%d medium=%d low=%d unknown=%d\n", s.High, s.Medium, s.Low, s.Unknown)
		fmt.Fprintf(w, "  By status: pending=%d accepted=%d rejected=%d blocking=%d\n", s.Pending, s.Accepted, s.Rejected, s.Blocking)
		fmt.Fprintf(w, "Health score: %.2f\n", s.OverallHealthScore)
		return nil
	},
}

func init() {
	semanticCmd.AddCommand(semanticListCmd)
	semanticCmd.AddCommand(semanticAddCmd)
	semanticCmd.AddCommand(semanticAcceptCmd)
	semanticCmd.AddCommand(semanticRejectCmd)
	semanticCmd.AddCommand(semanticDeferCmd)
	semanticCmd.AddCommand(semanticSummaryCmd)

	semanticAddCmd.Flags().String("pipeline", "", "Pipeline id (defaults to the current pipeline)")
	semanticAddCmd.Flags().String("level", "unknown", "Equivalence risk level (high, medium, low, unknown)")
	semanticAddCmd.Flags().String("description", "", "What diverges and where")
	semanticAddCmd.Flags().Bool("blocks", false, "Block the stage until the finding is resolved")
	semanticAddCmd.Flags().StringSlice("file", nil, "Affected file (repeatable)")

	for _, c := range []*cobra.Command{semanticAcceptCmd, semanticRejectCmd, semanticDeferCmd} {
		c.Flags().String("pipeline", "", "Pipeline id (defaults to the current pipeline)")
		c.Flags().String("reason", "", "Reason for the decision")
	}
}
