package main

import (
	"github.com/spf13/cobra"

	"github.com/startup-roles/backend/internal/scraper"
)

func newSourcesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered extractors in run order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load()
			if err != nil {
				return err
			}
			reg := scraper.NewDefaultRegistry(cfg.Scraper.Registry(), scraper.Deps{Logger: log})
			enabled := map[string]bool{}
			for _, e := range reg.Select(cfg.Scraper.Sources) {
				enabled[e.Name()] = true
			}
			renderSources(cmd.OutOrStdout(), reg.All(), enabled)
			return nil
		},
	}
}
