package llm

import (
	"context"
	"time"

	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

type Sleeper func(ctx context.Context, d time.Duration) error

type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay is doubled on every attempt: base, 2*base, 4*base...
	BaseDelay time.Duration
	Sleep     Sleeper
}

func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: time.Second, Sleep: SleepContext}
}

type retrying struct {
	inner  Provider
	policy RetryPolicy
	logger *logger_i.Logger
}

// WithRetry retries rate-limit, server and network failures with exponential
// backoff, preferring the provider's retry-after hint. Client errors are
// returned at once. After the last attempt the last error is returned.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.Sleep == nil {
		policy.Sleep = SleepContext
	}
	return &retrying{inner: p, policy: policy, logger: logger_i.NewLogger("llm_retry")}
}

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	log := r.logger.FromContext(ctx)
	var last *GenerationError

	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		text, err := r.inner.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		last = Classify(err)
		if !last.Retryable() || attempt == r.policy.MaxAttempts-1 {
			break
		}

		delay := last.RetryAfter
		if delay <= 0 {
			delay = r.policy.BaseDelay << attempt
		}
		log.Warn("generation failed, retrying", "attempt", attempt+1, "kind", last.Kind.String(), "delay", delay)
		metrics.IncrementGenerationRetry(last.Kind.String())

		if err := r.policy.Sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", last
}

func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
