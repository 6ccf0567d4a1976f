package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CancelCmd cancels a queued, running or paused job.
func CancelCmd() *cobra.Command {
	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			resp, err := client.CancelJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to cancel job: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s.\n", resp.JobID, resp.Status)
			return nil
		},
	}
	return cancelCmd
}
