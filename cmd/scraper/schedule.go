package main

import (
	"github.com/spf13/cobra"

	"github.com/startup-roles/backend/internal/bootstrap"
	"github.com/startup-roles/backend/internal/scheduler"
	"github.com/startup-roles/backend/pkg/logger"
)

func newScheduleCommand(flags *globalFlags) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scrapes and cleanups on their cron schedules until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, c, err := flags.build(cmd.Context(), bootstrap.Options{})
			if err != nil {
				return err
			}
			defer c.Close()

			s := scheduler.New(scheduler.Config{
				ScrapeSpec:  cfg.Scheduler.ScrapeSpec,
				CleanupSpec: cfg.Scheduler.CleanupSpec,
				RunOnStart:  runNow || cfg.Scheduler.RunOnStart,
			}, c.Jobs, c.Cleaner, logger.Named("scheduler"))
			if err := s.Start(cmd.Context()); err != nil {
				return err
			}

			<-cmd.Context().Done()
			s.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "start a scrape immediately")
	return cmd
}
