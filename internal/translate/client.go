package translate

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/metrics"
)

// Client wraps a Provider behind a circuit breaker and the two-tier
// cache, following the teacher sibling's pkg/sfu/client.go gobreaker
// wiring (open the breaker after a run of failures, half-open probes,
// close on success).
type Client struct {
	provider Provider
	cache    *Cache
	cb       *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	deadline time.Duration
}

// NewClient builds a Client. deadline bounds every provider call (spec:
// default 10s).
func NewClient(provider Provider, cache *Cache, m *metrics.Metrics, log *zap.SugaredLogger, deadline time.Duration) *Client {
	st := gobreaker.Settings{
		Name:        "translation-provider",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("translation circuit breaker state change", "from", from, "to", to)
		},
	}

	return &Client{
		provider: provider,
		cache:    cache,
		cb:       gobreaker.NewCircuitBreaker(st),
		metrics:  m,
		log:      log,
		deadline: deadline,
	}
}

// Translate returns the cached or freshly-fetched translation of text
// into targetLang. On any failure (timeout, breaker open, provider
// error) it returns ErrUnavailable and the caller downgrades silently.
func (c *Client) Translate(ctx context.Context, messageID int64, text, targetLang string) (string, error) {
	if cached, ok := c.cache.Get(messageID, targetLang); ok {
		c.metrics.TranslationCacheHits.Inc()
		return cached, nil
	}
	c.metrics.TranslationCacheMiss.Inc()

	cctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.provider.Translate(cctx, text, targetLang)
	})
	if err != nil {
		c.metrics.TranslationErrors.Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			c.log.Debugw("translation circuit open, downgrading", "targetLang", targetLang)
		}
		return "", ErrUnavailable
	}

	translated := result.(string)
	c.cache.Set(messageID, targetLang, translated)
	return translated, nil
}
