package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/WellnessGate/internal/models"
)

// scriptedGenerator returns the scripted results in order.
type scriptedGenerator struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedGenerator) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

func TestResilientRetriesUpstreamFailure(t *testing.T) {
	inner := &scriptedGenerator{
		errs:    []error{&GenerationError{Kind: models.FailureUpstream, Provider: "test", Err: errors.New("503")}},
		replies: []string{"", "recovered"},
	}
	r := NewResilient(inner, time.Second, 2, time.Millisecond)

	out, err := r.GenerateReply(context.Background(), "sys", nil, "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" || inner.calls != 2 {
		t.Errorf("expected recovery on second attempt, got %q after %d calls", out, inner.calls)
	}
}

func TestResilientDoesNotRetryInvalidOutput(t *testing.T) {
	inner := &scriptedGenerator{
		errs: []error{&GenerationError{Kind: models.FailureInvalidOutput, Provider: "test", Err: ErrEmptyOutput}},
	}
	r := NewResilient(inner, time.Second, 3, time.Millisecond)

	_, err := r.GenerateReply(context.Background(), "sys", nil, "hi")
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a single attempt, got %d", inner.calls)
	}
}

func TestResilientExhaustsRetries(t *testing.T) {
	fail := errors.New("connection refused")
	inner := &scriptedGenerator{errs: []error{fail, fail, fail}}
	r := NewResilient(inner, time.Second, 2, time.Millisecond)

	_, err := r.GenerateReply(context.Background(), "sys", nil, "hi")
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !errors.Is(err, fail) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestResilientAppliesTimeout(t *testing.T) {
	slow := generatorFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := NewResilient(slow, 10*time.Millisecond, 0, 0)

	_, err := r.GenerateReply(context.Background(), "sys", nil, "hi")
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.Kind != models.FailureTimeout {
		t.Errorf("expected timeout GenerationError, got %v", err)
	}
}

func TestResilientStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	g := generatorFunc(func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("boom")
	})
	r := NewResilient(g, 0, 5, time.Millisecond)

	if _, err := r.GenerateReply(ctx, "sys", nil, "hi"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected no retries after cancellation, got %d calls", calls)
	}
}

type generatorFunc func(ctx context.Context) (string, error)

func (f generatorFunc) GenerateReply(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	return f(ctx)
}
