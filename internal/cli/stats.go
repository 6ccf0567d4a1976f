package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatsCmd prints a queue statistics snapshot.
func StatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total jobs:      %d\n", stats.TotalJobs)
			fmt.Fprintf(out, "  queued:        %d\n", stats.QueuedJobs)
			fmt.Fprintf(out, "  running:       %d\n", stats.RunningJobs)
			fmt.Fprintf(out, "  completed:     %d\n", stats.CompletedJobs)
			fmt.Fprintf(out, "  failed:        %d\n", stats.FailedJobs)
			fmt.Fprintf(out, "  cancelled:     %d\n", stats.CancelledJobs)
			fmt.Fprintf(out, "Queue length:    %d\n", stats.QueueLength)
			if stats.OldestQueuedJobAgeSeconds > 0 {
				fmt.Fprintf(out, "Oldest queued:   %ds\n", stats.OldestQueuedJobAgeSeconds)
			}
			fmt.Fprintf(out, "Avg processing:  %.1fs\n", stats.AverageProcessingTimeSeconds)
			fmt.Fprintf(out, "Throughput:      %.1f jobs/min\n", stats.ThroughputJobsPerMinute)
			fmt.Fprintf(out, "Workers busy:    %.0f%%\n", stats.WorkerUtilization)
			return nil
		},
	}
	return statsCmd
}
