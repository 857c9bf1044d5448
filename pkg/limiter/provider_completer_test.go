package limiter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relaygw/relay/pkg/provider"

	"golang.org/x/time/rate"
)

type mockCompleter struct {
	calls atomic.Int64
}

func (m *mockCompleter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	m.calls.Add(1)

	return &provider.Response{Content: "ok"}, nil
}

func TestCompleteDelegates(t *testing.T) {
	mock := &mockCompleter{}

	c := NewCompleter(rate.NewLimiter(rate.Inf, 1), mock)

	resp, err := c.Complete(context.Background(), &provider.Request{})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "ok" {
		t.Errorf("expected the wrapped response, got %q", resp.Content)
	}

	if mock.calls.Load() != 1 {
		t.Errorf("expected one delegated call, got %d", mock.calls.Load())
	}
}

func TestCompleteCancelledWait(t *testing.T) {
	mock := &mockCompleter{}

	// Burst 0 makes every Wait block until the context dies.
	c := NewCompleter(rate.NewLimiter(1, 0), mock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, &provider.Request{})

	if err == nil {
		t.Fatal("expected the cancelled wait to fail")
	}

	if mock.calls.Load() != 0 {
		t.Errorf("expected no delegated call, got %d", mock.calls.Load())
	}
}
