// Package generator turns prompts into text through a hosted chat-completion API.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"risk-assessment/internal/common/config"
	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/common/metrics"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrLLMGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

// TextGenerator is safe for concurrent use.
type TextGenerator struct {
	config *Config
	client *openai.Client
	cache  Cache
	logger logger.Logger
}

// New builds a generator. doer and cache are optional.
func New(cfg *Config, doer openai.HTTPDoer, cache Cache, log logger.Logger) *TextGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if doer != nil {
		clientCfg.HTTPClient = doer
	}

	return &TextGenerator{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{
			"component": "generator",
			"model":     cfg.Model,
		}),
	}
}

// BuildPrompt fills the {data} placeholder of template with data.
func BuildPrompt(template, data string) string {
	if template == "" {
		template = config.DefaultPromptTemplate
	}
	return strings.Replace(template, "{data}", data, 1)
}

// Prompt is the prompt GenerateText sends for data.
func (g *TextGenerator) Prompt(data string) string {
	return BuildPrompt(g.config.PromptTemplate, data)
}

// Model is the completion model in use.
func (g *TextGenerator) Model() string {
	return g.config.Model
}

// GenerateText asks the model to analyse data. Any failure is logged and
// reported as an empty string.
func (g *TextGenerator) GenerateText(ctx context.Context, data string) string {
	text, err := g.Complete(ctx, g.Prompt(data))
	if err != nil {
		g.logger.Error("Error generating text", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return text
}

// Complete sends prompt as a single user message, retrying transient
// failures. It returns ErrLLMTimeout when the deadline passes and
// ErrLLMGenerationFailed for anything else.
func (g *TextGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(g.config.Model, prompt)
	if text, ok := g.cached(ctx, key); ok {
		metrics.GenerationRequests.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		return text, nil
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	text, err := g.complete(ctx, prompt)
	switch {
	case errors.Is(err, ErrLLMTimeout):
		metrics.GenerationRequests.WithLabelValues(metrics.OutcomeTimeout).Inc()
		return "", err
	case err != nil:
		metrics.GenerationRequests.WithLabelValues(metrics.OutcomeFailure).Inc()
		return "", err
	}

	metrics.GenerationRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	g.store(ctx, key, text)
	return text, nil
}

func (g *TextGenerator) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: float32(g.config.Temperature),
	}

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrLLMTimeout
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("%w: response has no choices", ErrLLMGenerationFailed)
			}
			g.logger.Debug("completion received", map[string]interface{}{
				"attempt":          attempt + 1,
				"finishReason":     string(resp.Choices[0].FinishReason),
				"completionTokens": resp.Usage.CompletionTokens,
			})
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ErrLLMTimeout
		}
		if !isTransient(err) {
			break
		}
		g.logger.Warn("completion attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return "", ErrLLMTimeout
	}
	return "", fmt.Errorf("%w: %v", ErrLLMGenerationFailed, lastErr)
}

// isTransient reports whether a failed call is worth retrying: network
// errors, rate limiting and server errors.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
