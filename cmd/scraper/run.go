package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/startup-roles/backend/internal/bootstrap"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		sources   []string
		useAPI    bool
		noBrowser bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every enabled extractor once and reconcile the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			if useAPI {
				cfg.Scraper.A16Z.UseAPI = true
			}

			c, err := bootstrap.Build(cmd.Context(), cfg, log, bootstrap.Options{Sources: sources, NoBrowser: noBrowser})
			if err != nil {
				return err
			}
			defer c.Close()
			if len(c.Extractors) == 0 {
				return fmt.Errorf("every selected source needs headless Chrome; drop --no-browser")
			}

			run, err := c.Jobs.Run(cmd.Context(), "cli")
			if run != nil && run.Summary != nil {
				renderSummary(cmd.OutOrStdout(), run)
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "extractor names or source ids to run (default: all enabled)")
	cmd.Flags().BoolVar(&useAPI, "api", false, "read a16z through its search API instead of the rendered board")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "skip sources that need headless Chrome")
	return cmd
}
