package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/retry"
)

// Guarded wraps a provider with a request rate limit, a circuit breaker and
// a bounded retry policy.
type Guarded struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	policy  retry.Config
	logger  *zap.Logger
}

var _ Provider = (*Guarded)(nil)

// NewGuarded limits inner to 90% of rpm requests per minute. rpm <= 0 disables the limiter.
func NewGuarded(inner Provider, rpm int, policy retry.Config, logger *zap.Logger) *Guarded {
	logger = logging.OrNop(logger).With(zap.String("provider", inner.Name()))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), max(1, rpm/10))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	if policy.Retryable == nil {
		policy.Retryable = transient
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}

	return &Guarded{
		inner:   inner,
		breaker: breaker,
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

// Complete waits for the limiter, then runs the call through the breaker
// under the retry policy.
func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	return retry.DoWithResult(ctx, g.policy, func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.inner.Complete(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return "", fmt.Errorf("%s: %w", g.inner.Name(), err)
			}
			return "", err
		}
		return result.(string), nil
	})
}

var retryable = retry.Any(retry.RateLimited, retry.Network)

// transient accepts throttling and network failures. An open breaker or a
// missing provider is never retried, nor is anything else (bad keys, bad
// requests).
func transient(err error) bool {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, ErrProviderUnavailable):
		return false
	}
	return retryable(err)
}
