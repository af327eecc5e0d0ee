package templatestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voicetyped/composer/pkg/lg"
)

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})

	if !cb.AllowRequest() {
		t.Error("closed breaker should allow requests")
	}
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Error("should still be closed after 1 failure")
	}
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("state = %q, want %q after threshold", cb.State(), StateOpen)
	}
	if cb.AllowRequest() {
		t.Error("open breaker should not allow requests")
	}
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:    1,
		ResetTimeout:        10 * time.Millisecond,
		HalfOpenMaxAttempts: 1,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.AllowRequest() {
		t.Fatal("should allow a trial call after reset timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %q, want %q", cb.State(), StateHalfOpen)
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("state = %q, want %q after trial success", cb.State(), StateClosed)
	}
}

type failingStore struct {
	*MemoryStore
	fail bool
}

func (f *failingStore) GetTemplates(ctx context.Context, containerID, ref string) ([]lg.Template, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.MemoryStore.GetTemplates(ctx, containerID, ref)
}

func TestBreakerStoreFailsFast(t *testing.T) {
	ctx := t.Context()
	inner := &failingStore{MemoryStore: NewMemoryStore(), fail: true}
	s := NewBreakerStore(inner, CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := s.GetTemplates(ctx, "common", "[a]"); err == nil {
			t.Fatal("expected backend error")
		}
	}
	inner.fail = false
	if _, err := s.GetTemplates(ctx, "common", "[a]"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if err := s.UpdateTemplate(ctx, "common", "a", "- a"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("UpdateTemplate err = %v, want ErrCircuitOpen", err)
	}

	// Fork falls back to the original reference while the circuit is open.
	if got := lg.CopyTemplate(ctx, "common", "[bfdactivity_x]", "bfdactivity_y", s); got != "[bfdactivity_x]" {
		t.Errorf("CopyTemplate = %q", got)
	}
}

func TestBreakerStoreNotFoundIsNotFailure(t *testing.T) {
	s := NewBreakerStore(NewMemoryStore(), CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	for i := 0; i < 3; i++ {
		if _, err := s.ListTemplates(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if s.Breaker().State() != StateClosed {
		t.Errorf("state = %q, want closed", s.Breaker().State())
	}
}
