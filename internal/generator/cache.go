package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "llm:completion:"

// Cache stores completions. *database.RedisClient satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "|" + prompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (g *TextGenerator) cached(ctx context.Context, key string) (string, bool) {
	if g.cache == nil || g.config.CacheTTL <= 0 {
		return "", false
	}
	text, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.Warn("completion cache lookup failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return "", false
	}
	return text, true
}

func (g *TextGenerator) store(ctx context.Context, key, text string) {
	if g.cache == nil || g.config.CacheTTL <= 0 || text == "" {
		return
	}
	if err := g.cache.Set(ctx, key, text, g.config.CacheTTL); err != nil {
		g.logger.Warn("completion cache store failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
