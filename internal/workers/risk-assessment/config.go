// internal/workers/risk-assessment/config.go
package riskassessment

import (
	"time"

	"risk-assessment/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	DefaultSource string
	DefaultPath   string
	SampleRows    int
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout == 0 {
		timeout = config.GetDuration(cfg.Camunda.Timeout)
	}
	return &Config{
		Timeout:       timeout,
		DefaultSource: cfg.Data.Source,
		DefaultPath:   cfg.Data.Path,
		SampleRows:    cfg.Generator.SampleRows,
	}
}
