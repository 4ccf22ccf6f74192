package exec

import (
	"math/rand"
	"time"

	"github.com/zero-day-ai/pera/config"
)

// RetryPolicy computes the delay before each retry attempt. It mirrors the
// original retry mechanism's four backoff strategies (none, linear,
// exponential, fibonacci), each with ±20% jitter to avoid thundering-herd
// retries when many tasks fail at once.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Backoff    config.Backoff
	jitter     func() float64 // overridable in tests
}

// NewRetryPolicy builds a RetryPolicy from execution configuration.
func NewRetryPolicy(cfg config.ExecutionConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		Backoff:    cfg.RetryBackoff,
		jitter:     rand.Float64,
	}
}

// Delay returns the delay to wait before retry attempt n (1-based: the
// first retry is n=1).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var multiplier float64
	switch p.Backoff {
	case config.BackoffNone:
		multiplier = 1
	case config.BackoffLinear:
		multiplier = float64(n)
	case config.BackoffExponential:
		multiplier = pow2(n - 1)
	case config.BackoffFibonacci:
		multiplier = float64(fibonacci(n))
	default:
		multiplier = pow2(n - 1)
	}

	base := float64(p.BaseDelay) * multiplier
	jitterFn := p.jitter
	if jitterFn == nil {
		jitterFn = rand.Float64
	}
	// ±20% jitter: base * (0.8 + 0.4*rand)
	jittered := base * (0.8 + 0.4*jitterFn())
	return time.Duration(jittered)
}

// ShouldRetry reports whether attempt n (the attempt that just failed, 1
// for the first execution) should be retried given a classification.
func (p RetryPolicy) ShouldRetry(n int, c Classification) bool {
	if !c.Recoverable {
		return false
	}
	return n <= p.MaxRetries
}

func pow2(n int) float64 {
	if n <= 0 {
		return 1
	}
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}

// fibonacci returns the n-th Fibonacci number (1-indexed: fib(1)=1, fib(2)=1,
// fib(3)=2, ...), computed iteratively as the original retry mechanism does.
func fibonacci(n int) int {
	if n <= 2 {
		return 1
	}
	a, b := 1, 1
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}
