package main

import (
	"github.com/spf13/cobra"

	"github.com/startup-roles/backend/internal/bootstrap"
)

func newCleanupCommand(flags *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Re-validate active roles and deactivate the ones that fail",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, c, err := flags.build(cmd.Context(), bootstrap.Options{NoBrowser: true})
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.Cleaner.Run(cmd.Context(), dryRun)
			if report != nil {
				renderCleanup(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report invalid roles without deactivating them")
	return cmd
}
