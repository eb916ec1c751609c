package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Manage the conversion decision ledger",
}

var decisionAddCmd = &cobra.Command{
	Use:   "add <title> <value>",
	Short: "Record a new conversion decision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		d, err := o.AddDecision(args[0], args[1], reason)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded decision %s: %s\n", d.ID, d.Title)
		return nil
	},
}

var decisionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		decisions, err := o.ListDecisions()
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No decisions recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-12s %-12s %-30s %s\n", "ID", "STATUS", "TITLE", "VALUE")
		fmt.Fprintf(w, "%-12s %-12s %-30s %s\n",
			strings.Repeat("-", 12),
			strings.Repeat("-", 12),
			strings.Repeat("-", 30),
			strings.Repeat("-", 5))
		for _, d := range decisions {
			fmt.Fprintf(w, "%-12s %-12s %-30s %s\n", d.ID, d.Status, d.Title, d.Value)
		}
		return nil
	},
}

var decisionShowCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "Show one decision including its chain links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		d, err := o.GetDecision(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Decision %s: %s\n", d.ID, d.Title)
		fmt.Fprintf(w, "  Value:       %s\n", d.Value)
		fmt.Fprintf(w, "  Status:      %s\n", d.Status)
		fmt.Fprintf(w, "  Fingerprint: %s\n", d.Fingerprint)
		if d.Reason != "" {
			fmt.Fprintf(w, "  Reason:      %s\n", d.Reason)
		}
		if d.OverrideReason != "" {
			fmt.Fprintf(w, "  Override:    %s\n", d.OverrideReason)
		}
		if len(d.Supersedes) > 0 {
			fmt.Fprintf(w, "  Supersedes:  %s\n", strings.Join(d.Supersedes, ", "))
		}
		if d.SupersededBy != "" {
			fmt.Fprintf(w, "  Superseded by: %s\n", d.SupersededBy)
		}
		fmt.Fprintf(w, "  Created:     %s\n", d.CreatedAt)
		fmt.Fprintf(w, "  Updated:     %s\n", d.UpdatedAt)
		return nil
	},
}

var decisionOverrideCmd = &cobra.Command{
	Use:   "override <decision-id> <new-value>",
	Short: "Supersede an active decision with a new value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		autoReplan, _ := cmd.Flags().GetBool("auto-replan")

		res, err := o.OverrideDecision(args[0], args[1], reason, autoReplan)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, res.Message)
		if res.PlanIsStale {
			fmt.Fprintln(w, "Plan is stale: re-run the plan stage before continuing")
		}
		return nil
	},
}

func init() {
	decisionCmd.AddCommand(decisionAddCmd)
	decisionCmd.AddCommand(decisionListCmd)
	decisionCmd.AddCommand(decisionShowCmd)
	decisionCmd.AddCommand(decisionOverrideCmd)

	decisionAddCmd.Flags().String("reason", "", "Why this decision was made")
	decisionOverrideCmd.Flags().String("reason", "", "Why the decision is being overridden")
	decisionOverrideCmd.Flags().Bool("auto-replan", false, "Mark the conversion plan stale regardless of content")
}
