package main

import (
	"github.com/spf13/cobra"

	"github.com/wdlrun/wdlrun/pkg/config"
	"github.com/wdlrun/wdlrun/pkg/logger"
)

// RootCmd builds the wdlrun command tree: a single `run` subcommand.
func RootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "wdlrun",
		Short: "Translate a WDL workflow into a job graph and run it",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupGlobalConfig(cmd, configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.AddCommand(newRunCommand())
	return root
}

// setupGlobalConfig loads the layered configuration (defaults, env,
// optional YAML file) and attaches both the Manager and a Logger built
// from it to the command's context.
func setupGlobalConfig(cmd *cobra.Command, configPath string) error {
	ctx := cmd.Context()
	mgr := config.NewManager()
	if err := mgr.Load(config.NewYAMLProvider(configPath)); err != nil {
		return err
	}
	ctx = config.ContextWithManager(ctx, mgr)

	cfg := mgr.Config()
	log := logger.NewLogger(&logger.Config{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	ctx = logger.ContextWithLogger(ctx, log)

	cmd.SetContext(ctx)
	return nil
}
