package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Asker answers questions against case facts.
type Asker interface {
	Ask(ctx context.Context, caseContext, question string) (string, error)
}

// answerCache is the slice of the redis API the memoizer needs.
type answerCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedAsker memoizes answers in redis. Purely an optimization collaborator:
// cache faults degrade to the upstream call, never to an error.
type CachedAsker struct {
	next   Asker
	rdb    answerCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAsker wraps an Asker with redis memoization.
func NewCachedAsker(next Asker, rdb answerCache, ttl time.Duration, logger *zap.Logger) *CachedAsker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAsker{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Ask returns a cached answer when the same question was asked against the
// same facts recently, otherwise defers to the wrapped Asker.
func (c *CachedAsker) Ask(ctx context.Context, caseContext, question string) (string, error) {
	key := askCacheKey(caseContext, question)

	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		return cached, nil
	} else if err != redis.Nil {
		c.logger.Warn("ai cache read failed", zap.Error(err))
	}

	answer, err := c.next.Ask(ctx, caseContext, question)
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, answer, c.ttl).Err(); err != nil {
		c.logger.Warn("ai cache write failed", zap.Error(err))
	}
	return answer, nil
}

func askCacheKey(caseContext, question string) string {
	sum := sha256.Sum256([]byte(caseContext + "\x00" + question))
	return "ai:ask:" + hex.EncodeToString(sum[:])
}
