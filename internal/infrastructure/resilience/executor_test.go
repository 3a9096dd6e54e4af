package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func breakerConfig() Config {
	return Config{
		Enabled:          true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      50 * time.Millisecond,
		HalfOpenMaxCalls: 1,
	}
}

func TestExecuteDoesNotRetry(t *testing.T) {
	b := NewBreakers(breakerConfig())

	attempts := 0
	errTemp := domain.WrapError(domain.ErrTemporary, "redis", errors.New("connection refused"))
	err := b.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errTemp
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterTemporaryFailures(t *testing.T) {
	b := NewBreakers(breakerConfig())

	errTemp := domain.WrapError(domain.ErrTemporary, "redis", errors.New("i/o timeout"))
	for i := 0; i < 2; i++ {
		err := b.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		})
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := b.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected open circuit to surface as temporary, got %v", err)
	}
}

func TestExecuteIgnoresNonInfrastructureErrors(t *testing.T) {
	b := NewBreakers(breakerConfig())

	for i := 0; i < 4; i++ {
		_ = b.Execute(context.Background(), "op", func(context.Context) error {
			return context.Canceled
		})
		_ = b.Execute(context.Background(), "op", func(context.Context) error {
			return domain.NewError(domain.ErrNotFound, "lookup", "missing")
		})
	}

	called := false
	if err := b.Execute(context.Background(), "op", func(context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
	if !called {
		t.Fatalf("expected operation to run")
	}
}

func TestNilBreakersRunDirectly(t *testing.T) {
	var b *Breakers
	called := false
	if err := b.Execute(context.Background(), "op", func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("expected direct call, err=%v called=%v", err, called)
	}
}
