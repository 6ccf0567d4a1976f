package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ListCmd prints tracked jobs as a table, optionally filtered by status.
func ListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")

			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			jobs, err := client.ListJobs(cmd.Context(), status)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}

			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tSTATUS\tPRIORITY\tPROGRESS\tCREATED")
			for _, job := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
					job.ID,
					job.Payload.Kind,
					job.Status,
					job.Priority,
					job.Progress.Percentage,
					job.CreatedAt.Format(time.RFC3339),
				)
			}
			return w.Flush()
		},
	}

	listCmd.Flags().String("status", "", "only show jobs with this status")

	return listCmd
}
