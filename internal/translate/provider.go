// Package translate implements the read-time translation fan-out (spec
// §4.1 step 6 and §4.5): a circuit-broken provider client in front of a
// two-tier cache.
package translate

import (
	"context"
	"errors"
)

// ErrUnavailable is returned (never a raw provider error) when
// translation could not be produced — callers downgrade to "no
// translation for that target" per spec §7.
var ErrUnavailable = errors.New("translate: unavailable")

// Provider is the minimal vendor-agnostic translation contract. Concrete
// vendors (and their SDKs) stay outside this core per spec §1 Non-goals;
// callers inject whichever Provider fits their deployment.
type Provider interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// NoopProvider always fails, useful when TRANSLATION_ENABLED=false so the
// rest of the pipeline still exercises the downgrade path in tests.
type NoopProvider struct{}

func (NoopProvider) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return "", ErrUnavailable
}
