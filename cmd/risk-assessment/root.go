package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"risk-assessment/internal/common/config"
	"risk-assessment/internal/common/logger"
)

var (
	configPath  string
	application *app
)

var rootCmd = &cobra.Command{
	Use:   "risk-assessment",
	Short: "Generate narrative risk assessments from financial metrics",
	Long: `risk-assessment loads a table of financial metrics, drops invalid rows and asks a
hosted language model for a short risk assessment of what remains.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg *config.Config
			err error
		)
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		application = newApp(cfg, zapLog)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if application != nil {
		application.close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: configs/config.yaml)")
}
