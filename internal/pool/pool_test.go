package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestGoRunsAllTasks(t *testing.T) {
	p := New(4)
	var count int32
	fns := make([]func(ctx context.Context) error, 10)
	for i := range fns {
		fns[i] = func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		}
	}
	if err := p.Go(context.Background(), fns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 tasks to run, got %d", count)
	}
}

func TestGoPropagatesFirstError(t *testing.T) {
	p := New(2)
	sentinel := errors.New("boom")
	fns := []func(ctx context.Context) error{
		func(ctx context.Context) error { return sentinel },
		func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() },
	}
	if err := p.Go(context.Background(), fns); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestNewDefaultsLimit(t *testing.T) {
	p := New(0)
	if p.Limit() <= 0 {
		t.Fatalf("expected positive default limit, got %d", p.Limit())
	}
}

func TestNewRespectsExplicitLimit(t *testing.T) {
	p := New(3)
	if p.Limit() != 3 {
		t.Fatalf("expected limit 3, got %d", p.Limit())
	}
}
