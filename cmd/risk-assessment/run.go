package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"risk-assessment/internal/common/metrics"
	"risk-assessment/internal/common/observability"
	"risk-assessment/internal/pipeline"
)

var runOpts struct {
	modelPath string
	dataPath  string
	source    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and log the generated insights",
	Long: `Run loads the configured dataset, keeps rows with a positive financial_metric and
logs the model's risk assessment. Failures are logged and never abort the run.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a := application
	ctx := cmd.Context()

	source := a.cfg.Data.Source
	if runOpts.source != "" {
		source = runOpts.source
	}
	path := a.cfg.Data.Path
	if runOpts.dataPath != "" {
		path = runOpts.dataPath
	}
	modelPath := a.cfg.Model.Path
	if runOpts.modelPath != "" {
		modelPath = runOpts.modelPath
	}

	r, err := a.retrievers(ctx)(source, path)
	if err != nil {
		return fmt.Errorf("data source %s: %w", source, err)
	}

	obs := observability.New(a.cfg.App.Name, nil, a.log)
	defer obs.Shutdown()

	gen, sampleRows := a.generator(ctx, a.profile(modelPath))
	p := pipeline.New(r, gen, a.log,
		pipeline.WithPublisher(a.publisher(ctx)),
		pipeline.WithObservability(obs),
		pipeline.WithSampleRows(sampleRows),
	)

	res := p.Run(ctx)

	if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		a.log.Warn("failed to write metrics textfile", map[string]interface{}{
			"path":  a.cfg.Metrics.TextfilePath,
			"error": err.Error(),
		})
	}

	a.log.Info("run complete", map[string]interface{}{
		"runId":      res.RunID,
		"status":     res.Status,
		"rowsLoaded": res.RowsLoaded,
		"rowsKept":   res.RowsKept,
		"delivered":  res.Delivered,
		"durationMs": res.Duration.Milliseconds(),
	})
	return nil
}

// addRunFlags registers the run flags on cmd. Root gets them too since it
// runs the pipeline when called without a subcommand.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runOpts.modelPath, "model", "", "Generator profile to load (overrides model.path)")
	cmd.Flags().StringVar(&runOpts.dataPath, "data", "", "CSV path to analyse (overrides data.path)")
	cmd.Flags().StringVar(&runOpts.source, "source", "", "Data source: csv or postgres (overrides data.source)")
}

func init() {
	addRunFlags(runCmd)
	addRunFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.RunE = runCmd.RunE
}
