package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/app"
	"github.com/johnquangdev/speech-insights/pkg/config"
)

// commandContext loads configuration and the logger once per invocation
type commandContext struct {
	cfg    *config.Config
	logger *zap.Logger
}

func (c *commandContext) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) log() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	env := "development"
	if c.cfg != nil {
		env = c.cfg.Server.Environment
	}
	logger, err := app.NewLogger(env)
	if err != nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "speechctl",
		Short:         "Speech insights command line tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.config()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newAnalysesCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
