package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// StatusCmd prints the full state of one job.
func StatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			job, err := client.GetJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch job: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:       %s\n", job.ID)
			fmt.Fprintf(out, "Kind:      %s\n", job.Payload.Kind)
			fmt.Fprintf(out, "Status:    %s\n", job.Status)
			fmt.Fprintf(out, "Priority:  %s\n", job.Priority)
			fmt.Fprintf(out, "Progress:  %.1f%%", job.Progress.Percentage)
			if job.Progress.CurrentItem != "" {
				fmt.Fprintf(out, " (%s)", job.Progress.CurrentItem)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Attempts:  %d of %d\n", job.RetryCount+1, job.MaxRetries+1)
			fmt.Fprintf(out, "Created:   %s\n", job.CreatedAt.Format(time.RFC3339))
			if job.StartedAt != nil {
				fmt.Fprintf(out, "Started:   %s\n", job.StartedAt.Format(time.RFC3339))
			}
			if job.CompletedAt != nil {
				fmt.Fprintf(out, "Finished:  %s\n", job.CompletedAt.Format(time.RFC3339))
			}
			if len(job.Dependencies) > 0 {
				fmt.Fprintf(out, "Depends:   %v\n", job.Dependencies)
			}
			if job.ResultData != "" {
				fmt.Fprintf(out, "Result:    %s\n", job.ResultData)
			}
			if job.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", job.ErrorMessage)
			}
			return nil
		},
	}
	return statusCmd
}
