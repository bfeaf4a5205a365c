package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFlags(t *testing.T) {
	args := []string{"--data", "q4.csv", "--source", "csv", "--model", "models/profile.yaml"}

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			t.Cleanup(func() {
				runOpts.modelPath, runOpts.dataPath, runOpts.source = "", "", ""
			})

			require.NoError(t, cmd.ParseFlags(args))
			assert.Equal(t, "q4.csv", runOpts.dataPath)
			assert.Equal(t, "csv", runOpts.source)
			assert.Equal(t, "models/profile.yaml", runOpts.modelPath)
		})
	}
}
