package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/cleanurls/internal/app"
	"github.com/yanizio/cleanurls/internal/config"
	"github.com/yanizio/cleanurls/internal/logger"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cleanurls",
	Short: "Inspect and maintain a clean-URL deployment",
	Long: `cleanurls drives the URL engine from the command line: it checks that a
live deployment routes requests correctly, translates single URLs in either
direction, and empties or invalidates the URL cache.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// console only; the server owns the log file
		if _, err := logger.New(logger.Options{Level: logLevel, Console: true}); err != nil {
			return fmt.Errorf("start logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/conf/global.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

// loadConfig reads the configuration selected by --config.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadWith(ctx, config.Options{Path: cfgFile})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildApp loads configuration and wires the engine graph.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg)
}
