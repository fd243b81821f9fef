package genai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// Retry defaults for Resilient
const (
	// DefaultTimeout bounds a single generation attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the number of extra attempts after the first failure.
	DefaultMaxRetries = 1
	// DefaultRetryBackoff is the wait before the first retry; it doubles per attempt.
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Resilient wraps a Generator with a per-attempt timeout and bounded retries.
// Invalid output is not retried.
type Resilient struct {
	inner      Generator
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// NewResilient wraps inner. Non-positive timeout disables the per-attempt deadline;
// negative maxRetries is treated as zero.
func NewResilient(inner Generator, timeout time.Duration, maxRetries int, backoff time.Duration) *Resilient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Resilient{inner: inner, timeout: timeout, maxRetries: maxRetries, backoff: backoff}
}

// GenerateReply calls the wrapped generator until it succeeds, the retry budget is spent,
// or ctx is done. The last failure is returned as a *GenerationError.
func (r *Resilient) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := r.backoff * time.Duration(1<<(attempt-1))
			slog.Debug("genai.Resilient.GenerateReply: retrying", "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return "", asGenerationError(ctx.Err())
			case <-time.After(wait):
			}
		}

		reply, err := r.attempt(ctx, system, history, message)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		kind := classifyError(err)
		slog.Warn("genai.Resilient.GenerateReply: attempt failed", "attempt", attempt, "kind", kind, "error", err)
		if kind == models.FailureInvalidOutput || ctx.Err() != nil {
			break
		}
	}
	return "", asGenerationError(lastErr)
}

func (r *Resilient) attempt(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.inner.GenerateReply(ctx, system, history, message)
}

func asGenerationError(err error) error {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GenerationError{Kind: classifyError(err), Provider: "resilient", Err: err}
}
