package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

// Policy defines retry behavior with bounded exponential backoff. A Policy
// is stateless and reentrant; concurrent use across independent operations
// is safe.
type Policy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewPolicy creates a default retry policy
func NewPolicy() *Policy {
	return &Policy{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// NewPolicyFromConfig builds a policy from configuration, falling back to
// defaults for unset or malformed values.
func NewPolicyFromConfig(config *common.RetryConfig) *Policy {
	policy := NewPolicy()

	if config.MaxAttempts > 0 {
		policy.MaxAttempts = config.MaxAttempts
	}
	if d, err := time.ParseDuration(config.InitialDelay); err == nil && d > 0 {
		policy.InitialBackoff = d
	}
	if d, err := time.ParseDuration(config.MaxDelay); err == nil && d > 0 {
		policy.MaxBackoff = d
	}
	if config.Multiplier > 1 {
		policy.BackoffMultiplier = config.Multiplier
	}

	return policy
}

// ShouldRetry reports whether a failed attempt should be retried. Only
// failures marked transient (or plain network-level failures) are retried;
// anything else fails fast.
func (p *Policy) ShouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return isRetryableError(err)
}

// CalculateBackoff returns the wait before the given retry:
// initial * multiplier^attempt, capped at MaxBackoff. attempt is zero-based.
func (p *Policy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Execute runs fn up to MaxAttempts times, waiting between attempts and
// aborting early when the context is cancelled. The last failure is
// returned when all attempts are exhausted. Non-transient failures are
// returned immediately without further attempts.
func (p *Policy) Execute(ctx context.Context, logger arbor.ILogger, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.ShouldRetry(attempt+1, lastErr) {
			if !isRetryableError(lastErr) {
				logger.Debug().
					Str("operation", op).
					Int("attempt", attempt+1).
					Err(lastErr).
					Msg("Non-retryable error, failing immediately")
				return lastErr
			}
			break
		}

		backoff := p.CalculateBackoff(attempt)
		logger.Debug().
			Str("operation", op).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Retrying after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	logger.Warn().
		Str("operation", op).
		Int("max_attempts", p.MaxAttempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return lastErr
}

// isRetryableError checks if an error is retryable: failures explicitly
// marked transient, timeouts, and connection-level network errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if models.IsTransient(err) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
