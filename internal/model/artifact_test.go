package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/generator"
)

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewZapAdapter(zap.New(core)), logs
}

func TestSaveAndLoadModel(t *testing.T) {
	log, logs := observedLogger()
	path := filepath.Join(t.TempDir(), "profiles", "default.yaml")

	a := &Artifact{
		Name:           "default",
		Version:        CurrentVersion,
		Model:          "gpt-4o",
		Temperature:    0.2,
		MaxTokens:      512,
		SampleRows:     10,
		PromptTemplate: "Assess: {data}",
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	SaveModel(a, path, log)
	assert.Equal(t, 1, logs.FilterMessage("Model saved").Len())

	loaded := LoadModel(path, log)
	require.NotNil(t, loaded)
	assert.Equal(t, a, loaded)
}

func TestLoadModel_MissingFile(t *testing.T) {
	log, logs := observedLogger()

	assert.Nil(t, LoadModel(filepath.Join(t.TempDir(), "missing.yaml"), log))
	assert.Equal(t, 1, logs.FilterMessage("Error loading model").Len())
}

func TestLoadModel_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("name: [unclosed"), 0o600))
	assert.Nil(t, LoadModel(garbage, logger.NewTestLogger(t)))

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 99\nmodel: gpt-5\n"), 0o600))
	assert.Nil(t, LoadModel(future, logger.NewTestLogger(t)))

	_, err := loadModel(future)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoadModel_UnversionedIsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: legacy\nmodel: gpt-4o\n"), 0o600))

	a := LoadModel(path, logger.NewTestLogger(t))
	require.NotNil(t, a)
	assert.Equal(t, CurrentVersion, a.Version)
	assert.Equal(t, "gpt-4o", a.Model)
}

func TestSaveModel_FailureIsSwallowed(t *testing.T) {
	log, logs := observedLogger()
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	assert.NotPanics(t, func() {
		SaveModel(&Artifact{Version: CurrentVersion}, filepath.Join(blocker, "a.yaml"), log)
		SaveModel(nil, filepath.Join(t.TempDir(), "nil.yaml"), log)
	})
	assert.Equal(t, 2, logs.FilterMessage("Error saving model").Len())
	assert.Equal(t, 0, logs.FilterMessage("Model saved").Len())
}

func TestArtifact_Apply(t *testing.T) {
	cfg := &generator.Config{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 256, PromptTemplate: "A {data}"}
	a := &Artifact{Model: "gpt-4o", MaxTokens: 1024, SampleRows: 8}

	rows := a.Apply(cfg, 5)

	assert.Equal(t, 8, rows)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, "A {data}", cfg.PromptTemplate)

	var nilArtifact *Artifact
	assert.Equal(t, 5, nilArtifact.Apply(cfg, 5))
}

func TestFromConfig(t *testing.T) {
	cfg := &generator.Config{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 256, PromptTemplate: "A {data}"}

	a := FromConfig("default", cfg, 5)

	assert.Equal(t, CurrentVersion, a.Version)
	assert.Equal(t, "gpt-4o-mini", a.Model)
	assert.Equal(t, 5, a.SampleRows)
	assert.False(t, a.CreatedAt.IsZero())
}
