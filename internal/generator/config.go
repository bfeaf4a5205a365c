package generator

import (
	"time"

	"risk-assessment/internal/common/config"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
	MaxRetries     int
	PromptTemplate string
	CacheTTL       time.Duration
}

// LoadConfig maps the application config onto generator settings. A zero
// CacheTTL disables caching.
func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		BaseURL:        cfg.Generator.BaseURL,
		APIKey:         cfg.Generator.APIKey,
		Model:          cfg.Generator.Model,
		MaxTokens:      cfg.Generator.MaxTokens,
		Temperature:    cfg.Generator.Temperature,
		Timeout:        config.GetDuration(cfg.Generator.Timeout),
		MaxRetries:     cfg.Generator.MaxRetries,
		PromptTemplate: cfg.Generator.PromptTemplate,
	}
	if cfg.Cache.Enabled {
		c.CacheTTL = time.Duration(cfg.Cache.TTL) * time.Second
	}
	return c
}
