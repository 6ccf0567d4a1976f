package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CleanupCmd evicts finished jobs past the retention window.
func CleanupCmd() *cobra.Command {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove finished jobs past the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			removed, err := client.Cleanup(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to run cleanup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs.\n", removed)
			return nil
		},
	}
	return cleanupCmd
}
