// Package model persists generator profiles as YAML artifacts.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/generator"
)

const CurrentVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported artifact version")

// Artifact is a saved generator profile.
type Artifact struct {
	Name           string    `yaml:"name"`
	Version        int       `yaml:"version"`
	Model          string    `yaml:"model"`
	Temperature    float64   `yaml:"temperature"`
	MaxTokens      int       `yaml:"max_tokens"`
	SampleRows     int       `yaml:"sample_rows"`
	PromptTemplate string    `yaml:"prompt_template"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// FromConfig captures the profile of a generator config.
func FromConfig(name string, cfg *generator.Config, sampleRows int) *Artifact {
	return &Artifact{
		Name:           name,
		Version:        CurrentVersion,
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		SampleRows:     sampleRows,
		PromptTemplate: cfg.PromptTemplate,
		CreatedAt:      time.Now().UTC(),
	}
}

// Apply overrides the non-zero fields of the artifact onto cfg and returns
// the effective sample size.
func (a *Artifact) Apply(cfg *generator.Config, sampleRows int) int {
	if a == nil {
		return sampleRows
	}
	if a.Model != "" {
		cfg.Model = a.Model
	}
	if a.Temperature != 0 {
		cfg.Temperature = a.Temperature
	}
	if a.MaxTokens != 0 {
		cfg.MaxTokens = a.MaxTokens
	}
	if a.PromptTemplate != "" {
		cfg.PromptTemplate = a.PromptTemplate
	}
	if a.SampleRows > 0 {
		sampleRows = a.SampleRows
	}
	return sampleRows
}

// LoadModel reads an artifact, returning nil when it cannot be loaded.
func LoadModel(path string, log logger.Logger) *Artifact {
	a, err := loadModel(path)
	if err != nil {
		log.Error("Error loading model", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil
	}
	return a
}

// SaveModel writes an artifact. Failures are logged, not returned.
func SaveModel(a *Artifact, path string, log logger.Logger) {
	if err := saveModel(a, path); err != nil {
		log.Error("Error saving model", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	log.Info("Model saved", map[string]interface{}{"path": path})
}

func loadModel(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Artifact
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if a.Version == 0 {
		a.Version = CurrentVersion
	}
	if a.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, a.Version)
	}
	return &a, nil
}

// saveModel writes through a temp file so a failed save leaves any previous
// artifact intact.
func saveModel(a *Artifact, path string) error {
	if a == nil {
		return errors.New("nil artifact")
	}

	raw, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
