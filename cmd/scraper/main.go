// Command scraper runs the extraction pipeline and maintenance tasks from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/bootstrap"
	"github.com/startup-roles/backend/internal/config"
	"github.com/startup-roles/backend/pkg/logger"
)

type globalFlags struct {
	configPath string
	debug      bool
	store      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Startup role aggregation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.store, "store", "", "override the database driver (postgres or memory)")

	root.AddCommand(
		newRunCommand(flags),
		newCleanupCommand(flags),
		newScheduleCommand(flags),
		newMigrateCommand(flags),
		newSourcesCommand(flags),
	)
	return root
}

// load reads configuration and initializes the process logger
func (f *globalFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if f.debug {
		cfg.Server.Debug = true
	}
	if f.store != "" {
		cfg.Database.Driver = f.store
	}
	logger.Init(cfg.Server.Debug)
	return cfg, logger.Get(), nil
}

func (f *globalFlags) build(ctx context.Context, opts bootstrap.Options) (*config.Config, *bootstrap.Components, error) {
	cfg, log, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	c, err := bootstrap.Build(ctx, cfg, log, opts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
