package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Manage conversion pipelines",
}

var pipelineCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new conversion pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		p, err := o.CreatePipeline(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created pipeline %s (%s) with %d stages\n",
			p.ID, p.Name, len(p.Stages))
		return nil
	},
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all pipelines",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		pipelines, err := o.ListPipelines()
		if err != nil {
			return fmt.Errorf("list pipelines: %w", err)
		}
		if len(pipelines) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pipelines found.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-10s %-12s %-16s %-20s %s\n", "ID", "STATUS", "ACTIVE STAGE", "CREATED", "NAME")
		fmt.Fprintf(w, "%-10s %-12s %-16s %-20s %s\n",
			strings.Repeat("-", 10),
			strings.Repeat("-", 12),
			strings.Repeat("-", 16),
			strings.Repeat("-", 20),
			strings.Repeat("-", 4))
		for _, p := range pipelines {
			fmt.Fprintf(w, "%-10s %-12s %-16s %-20s %s\n",
				p.ID, p.ComputedStatus(), p.ActiveStage, p.CreatedAt, p.Name)
		}
		return nil
	},
}

var pipelineStatusCmd = &cobra.Command{
	Use:   "status [pipeline-id]",
	Short: "Show detailed pipeline status",
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
		st, err := o.GetStatus(id)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Pipeline %s: %s\n", st.ID, st.Name)
		fmt.Fprintf(w, "  Status:       %s\n", st.Status)
		if st.ActiveStage != "" {
			fmt.Fprintf(w, "  Active Stage: %s\n", st.ActiveStage)
		}
		fmt.Fprintf(w, "  Created:      %s\n", st.CreatedAt)
		fmt.Fprintf(w, "  Updated:      %s\n", st.UpdatedAt)

		fmt.Fprintln(w, "  Stages:")
		for _, s := range st.Stages {
			line := fmt.Sprintf("    %-16s %-10s", s.Name, s.Status)
			if s.Reason != "" {
				line += "  " + s.Reason
			}
			fmt.Fprintln(w, line)
		}

		if len(st.Checkpoints) > 0 {
			fmt.Fprintln(w, "  Open Checkpoints:")
			for _, c := range st.Checkpoints {
				fmt.Fprintf(w, "    %s  %s (%s)\n", c.ID, c.Name, c.Status)
			}
		}
		return nil
	},
}

var pipelineUseCmd = &cobra.Command{
	Use:   "use <pipeline-id>",
	Short: "Select the pipeline that id-less commands target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		if err := o.SetCurrent(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Current pipeline set to %s\n", args[0])
		return nil
	},
}

var pipelineDeleteCmd = &cobra.Command{
	Use:   "delete <pipeline-id>",
	Short: "Delete a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOrchestrator()
		if err != nil {
			return err
		}
		if err := o.DeletePipeline(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted pipeline %s\n", args[0])
		return nil
	},
}

var pipelineHistoryCmd = &cobra.Command{
	Use:   "history [pipeline-id]",
	Short: "Show recorded lifecycle events for a pipeline",
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
		limit, _ := cmd.Flags().GetInt("limit")
		events, err := o.History(id, limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		for _, e := range events {
			line := fmt.Sprintf("%s  %-18s", e.Timestamp, e.Event)
			if e.Stage != "" {
				line += "  " + e.Stage
			}
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			fmt.Fprintln(w, line)
		}
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineCreateCmd)
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineStatusCmd)
	pipelineCmd.AddCommand(pipelineUseCmd)
	pipelineCmd.AddCommand(pipelineDeleteCmd)
	pipelineCmd.AddCommand(pipelineHistoryCmd)

	pipelineHistoryCmd.Flags().Int("limit", 20, "Maximum number of events to show")
}
