package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Review and resolve human checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list [pipeline-id]",
	Short: "List the open checkpoints of a pipeline",
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
		checkpoints, err := o.ListCheckpoints(id)
		if err != nil {
			return err
		}
		if len(checkpoints) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No open checkpoints.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-36s %-18s %-18s %s\n", "ID", "STAGE", "STATUS", "REASON")
		fmt.Fprintf(w, "%-36s %-18s %-18s %s\n",
			strings.Repeat("-", 36),
			strings.Repeat("-", 18),
			strings.Repeat("-", 18),
			strings.Repeat("-", 6))
		for _, c := range checkpoints {
			fmt.Fprintf(w, "%-36s %-18s %-18s %s\n", c.ID, c.Stage, c.Status, c.Reason)
		}
		return nil
	},
}

var checkpointApproveCmd = &cobra.Command{
	Use:   "approve <checkpoint-id>",
	Short: "Approve a checkpoint so its stage can resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.ApproveCheckpoint(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s approved\n", args[0])
		return nil
	},
}

var checkpointRejectCmd = &cobra.Command{
	Use:   "reject <checkpoint-id>",
	Short: "Reject a checkpoint and fail its stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.RejectCheckpoint(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s rejected\n", args[0])
		return nil
	},
}

var checkpointOverrideCmd = &cobra.Command{
	Use:   "override <checkpoint-id>",
	Short: "Force-complete the stage behind a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("pipeline")
		reason, _ := cmd.Flags().GetString("reason")
		if err := o.OverrideCheckpoint(id, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s overridden\n", args[0])
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointListCmd)
	checkpointCmd.AddCommand(checkpointApproveCmd)
	checkpointCmd.AddCommand(checkpointRejectCmd)
	checkpointCmd.AddCommand(checkpointOverrideCmd)

	for _, c := range []*cobra.Command{checkpointApproveCmd, checkpointRejectCmd, checkpointOverrideCmd} {
		c.Flags().String("pipeline", "", "Pipeline id (defaults to the current pipeline)")
		c.Flags().String("reason", "", "Reason for the decision")
	}
}
