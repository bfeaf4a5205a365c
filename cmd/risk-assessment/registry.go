package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"risk-assessment/internal/common/config"
	riskassessment "risk-assessment/internal/workers/risk-assessment"
	"risk-assessment/pkg/registry"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Register the risk-assessment worker in an activity registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := application
		reg, err := registry.LoadOrNew(registryPath)
		if err != nil {
			return fmt.Errorf("load registry %s: %w", registryPath, err)
		}

		wcfg := config.GetWorkerConfig(a.cfg, riskassessment.TaskType)
		reg.Upsert(riskassessment.Activity(riskassessment.LoadConfig(a.cfg), wcfg.MaxRetries))
		if err := reg.Save(registryPath); err != nil {
			return fmt.Errorf("save registry %s: %w", registryPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", riskassessment.TaskType, registryPath)
		return nil
	},
}

func init() {
	registryCmd.Flags().StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")
	rootCmd.AddCommand(registryCmd)
}
