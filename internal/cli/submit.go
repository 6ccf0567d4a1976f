package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// SubmitCmd submits a new job from a JSON payload argument.
func SubmitCmd() *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit <payload(json)>",
		Short: "Submit a job to the queue",
		Long: `Submit a job to the queue. The payload argument is the JSON job payload,
for example:

  gaitqueuectl submit '{"kind":"data_cleanup","data_cleanup":{"older_than_days":30,"preserve_important":true}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload models.JobPayload
			if err := json.Unmarshal([]byte(args[0]), &payload); err != nil {
				return fmt.Errorf("invalid payload JSON: %w", err)
			}

			req := SubmitJobRequest{Payload: payload}
			req.Priority, _ = cmd.Flags().GetString("priority")
			if cmd.Flags().Changed("max-retries") {
				v, _ := cmd.Flags().GetInt("max-retries")
				req.MaxRetries = &v
			}
			if cmd.Flags().Changed("timeout-seconds") {
				v, _ := cmd.Flags().GetInt("timeout-seconds")
				req.TimeoutSeconds = &v
			}
			req.Dependencies, _ = cmd.Flags().GetStringSlice("depends-on")
			req.Metadata, _ = cmd.Flags().GetStringToString("meta")

			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			resp, err := client.SubmitJob(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to submit job: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s.\n", resp.JobID, resp.Status)
			return nil
		},
	}

	submitCmd.Flags().String("priority", "", "job priority (low, normal, high, critical)")
	submitCmd.Flags().Int("max-retries", 0, "retries allowed after the first attempt")
	submitCmd.Flags().Int("timeout-seconds", 0, "per-attempt timeout in seconds")
	submitCmd.Flags().StringSlice("depends-on", nil, "job IDs that must complete first")
	submitCmd.Flags().StringToString("meta", nil, "metadata key=value pairs")

	return submitCmd
}
