package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"risk-assessment/internal/generator"
	"risk-assessment/internal/model"
)

var modelSaveOpts struct {
	out  string
	name string
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage generator profiles",
}

var modelSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the configured generator settings as a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := application
		gcfg := generator.LoadConfig(a.cfg)
		artifact := model.FromConfig(modelSaveOpts.name, gcfg, a.cfg.Generator.SampleRows)
		model.SaveModel(artifact, modelSaveOpts.out, a.log)
		return nil
	},
}

var modelShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a saved generator profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact := model.LoadModel(args[0], application.log)
		if artifact == nil {
			return fmt.Errorf("could not load profile %s", args[0])
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(artifact); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	modelSaveCmd.Flags().StringVarP(&modelSaveOpts.out, "out", "o", "models/profile.yaml", "Where to write the profile")
	modelSaveCmd.Flags().StringVar(&modelSaveOpts.name, "name", "default", "Profile name")

	modelCmd.AddCommand(modelSaveCmd)
	modelCmd.AddCommand(modelShowCmd)
	rootCmd.AddCommand(modelCmd)
}
