package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the gaitqueuectl command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gaitqueuectl",
		Short:         "Control a running gaitqueue batch server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("addr", envOr("GAITQUEUE_ADDR", "http://localhost:8091"), "base URL of the gaitqueue server")
	rootCmd.PersistentFlags().String("api-key", os.Getenv("GAITQUEUE_API_KEY"), "API key for authenticated endpoints")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(SubmitCmd())
	rootCmd.AddCommand(StatusCmd())
	rootCmd.AddCommand(ListCmd())
	rootCmd.AddCommand(CancelCmd())
	rootCmd.AddCommand(StatsCmd())
	rootCmd.AddCommand(CleanupCmd())
	rootCmd.AddCommand(HealthCmd())

	return rootCmd
}

// clientFromCmd builds an API client from the root command's persistent flags.
func clientFromCmd(cmd *cobra.Command) (*Client, error) {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return nil, err
	}
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	return NewClient(addr, apiKey, timeout), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
