// Package ratelimit wraps github.com/ulule/limiter/v3 for the two
// request classes the spec gates explicitly: message creation per sender
// and translation requests per sender/per target language, following
// RoseWrightdev-Video-Conferencing's internal/v1/ratelimit/limiter.go.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	lmemory "github.com/ulule/limiter/v3/drivers/store/memory"
	lredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Limiter bundles the rate limiters this core enforces.
type Limiter struct {
	messages  *limiter.Limiter
	translate *limiter.Limiter
}

// Config mirrors the §6.3 rate-limit environment parameters.
type Config struct {
	MessagesPerWindow  int
	MessagesWindowSec  int
	TranslatePerWindow int
	TranslateWindowSec int
}

// New builds a Limiter. When redisClient is non-nil its store backs the
// limiter (so limits are shared across replicas); otherwise it falls back
// to an in-memory store, matching the teacher sibling's dev-mode fallback.
func New(cfg Config, redisClient *redis.Client) (*Limiter, error) {
	var store limiter.Store
	if redisClient != nil {
		s, err := lredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "ratelimit:v1:"})
		if err != nil {
			return nil, fmt.Errorf("ratelimit: redis store: %w", err)
		}
		store = s
	} else {
		store = lmemory.NewStore()
	}

	msgRate := limiter.Rate{
		Period: time.Duration(cfg.MessagesWindowSec) * time.Second,
		Limit:  int64(cfg.MessagesPerWindow),
	}
	trRate := limiter.Rate{
		Period: time.Duration(cfg.TranslateWindowSec) * time.Second,
		Limit:  int64(cfg.TranslatePerWindow),
	}

	return &Limiter{
		messages:  limiter.New(store, msgRate),
		translate: limiter.New(store, trRate),
	}, nil
}

// AllowMessage enforces the per-sender message-create limit (spec:
// 50 messages / 10s).
func (l *Limiter) AllowMessage(ctx context.Context, senderID int64) (bool, error) {
	res, err := l.messages.Get(ctx, fmt.Sprintf("msg:%d", senderID))
	if err != nil {
		// fail open: availability of the message pipeline outranks a
		// best-effort rate limit store outage.
		return true, nil
	}
	return !res.Reached, nil
}

// AllowTranslate enforces one translation limit per (sender, target
// language) pair: TranslatePerWindow requests per TranslateWindowSec.
// There is no separate overall or per-room translation limit.
func (l *Limiter) AllowTranslate(ctx context.Context, senderID int64, targetLang string) (bool, error) {
	res, err := l.translate.Get(ctx, fmt.Sprintf("tr:%d:%s", senderID, targetLang))
	if err != nil {
		return true, nil
	}
	return !res.Reached, nil
}
