package roundrobin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/relaygw/relay/pkg/provider"
	"github.com/relaygw/relay/pkg/router"
)

type mockCompleter struct {
	err      error
	response string
	calls    atomic.Int64
}

func (m *mockCompleter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	m.calls.Add(1)

	if m.err != nil {
		return nil, m.err
	}

	return &provider.Response{
		Role:    provider.MessageRoleAssistant,
		Content: m.response,
	}, nil
}

func TestNewCompleter(t *testing.T) {
	t.Run("requires at least one completer", func(t *testing.T) {
		_, err := NewCompleter()
		if err == nil {
			t.Error("expected error for empty completers")
		}
	})

	t.Run("creates completer with providers", func(t *testing.T) {
		mock := &mockCompleter{response: "hello"}
		c, err := NewCompleter(mock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c == nil {
			t.Fatal("expected completer")
		}
	})
}

func TestCompleteDistributesLoad(t *testing.T) {
	a := &mockCompleter{response: "a"}
	b := &mockCompleter{response: "b"}

	c, err := NewCompleter(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	}

	for i := 0; i < 100; i++ {
		if _, err := c.Complete(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if a.calls.Load() == 0 || b.calls.Load() == 0 {
		t.Errorf("expected both providers to receive requests, got %d and %d", a.calls.Load(), b.calls.Load())
	}

	if a.calls.Load()+b.calls.Load() != 100 {
		t.Errorf("expected exactly 100 requests total, got %d", a.calls.Load()+b.calls.Load())
	}
}

func TestCircuitOpensAfterFailures(t *testing.T) {
	failing := &mockCompleter{err: errors.New("boom")}
	healthy := &mockCompleter{response: "ok"}

	c, err := NewCompleter(failing, healthy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	}

	// Drive enough traffic that the failing provider trips its breaker.
	for i := 0; i < 50; i++ {
		c.Complete(context.Background(), req)
	}

	failedBefore := failing.calls.Load()

	for i := 0; i < 50; i++ {
		if _, err := c.Complete(context.Background(), req); err != nil {
			t.Fatalf("unexpected error with open circuit: %v", err)
		}
	}

	if failing.calls.Load() != failedBefore {
		t.Errorf("expected no traffic to the open circuit, got %d extra calls", failing.calls.Load()-failedBefore)
	}
}

func TestFallbackWhenAllCircuitsOpen(t *testing.T) {
	failing := &mockCompleter{err: errors.New("boom")}

	c, err := NewCompleter(failing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := &provider.Request{
		Messages: []provider.Message{provider.UserMessage("hi")},
	}

	for i := 0; i < router.DefaultFailureThreshold+5; i++ {
		if _, err := c.Complete(context.Background(), req); err == nil {
			t.Fatal("expected the failure to propagate")
		}
	}

	// With every circuit open the least recently failed provider still
	// takes the probe instead of the request being dropped.
	if failing.calls.Load() != int64(router.DefaultFailureThreshold+5) {
		t.Errorf("expected every request to reach the fallback, got %d", failing.calls.Load())
	}
}
