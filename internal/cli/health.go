package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// HealthCmd checks whether the server is up.
func HealthCmd() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server health check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s (queued %d, running %d)\n",
				health.Status, health.QueuedJobs, health.RunningJobs)
			return nil
		},
	}
	return healthCmd
}
