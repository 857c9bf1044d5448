// Package scheduler drives one recurring task's execution loop, independent
// of what the task does. Each Scheduler owns its own goroutine; schedulers
// for different tasks never block one another, and a failing tick never
// stops future ticks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ExecuteFunc is the task body supplied by each concrete use.
type ExecuteFunc[T any] func(ctx context.Context, task T) error

// ErrorFunc handles a failed tick. The default only logs: the schedule
// survives individual failures indefinitely, with no backoff — retries are
// purely "try again next interval".
type ErrorFunc[T any] func(task T, err error)

type Option[T any] func(*Scheduler[T])

func WithImmediate[T any](immediate bool) Option[T] {
	return func(s *Scheduler[T]) {
		s.immediate = immediate
	}
}

func WithErrorHandler[T any](fn ErrorFunc[T]) Option[T] {
	return func(s *Scheduler[T]) {
		s.onError = fn
	}
}

func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(s *Scheduler[T]) {
		s.logger = logger
	}
}

type Scheduler[T any] struct {
	task     T
	interval time.Duration

	immediate bool

	execute ExecuteFunc[T]
	onError ErrorFunc[T]

	logger *slog.Logger

	mu         sync.Mutex
	running    bool
	terminated bool
	cancel     context.CancelFunc

	// next is the wall-clock unix ms of the upcoming tick, 0 when stopped.
	next atomic.Int64
}

func New[T any](task T, interval time.Duration, execute ExecuteFunc[T], options ...Option[T]) *Scheduler[T] {
	s := &Scheduler[T]{
		task:     task,
		interval: interval,

		execute: execute,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.onError == nil {
		s.onError = func(task T, err error) {
			s.logger.Error("scheduled task failed", "error", err)
		}
	}

	return s
}

// Start begins the execution loop. Calling Start on a running scheduler is a
// logged no-op: there is never more than one loop per scheduler.
func (s *Scheduler[T]) Start() {
	s.mu.Lock()

	if s.terminated {
		s.mu.Unlock()
		s.logger.Warn("scheduler already shut down, ignoring start")
		return
	}

	if s.running {
		s.mu.Unlock()
		s.logger.Info("scheduler already running, ignoring start")
		return
	}

	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.mu.Unlock()

	go s.run(ctx)
}

// Stop flips the running flag and cancels the suspended wait. It does not
// wait for an in-flight tick: cancellation is cooperative, a body already
// past its check point runs to completion.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		s.logger.Info("scheduler not running, ignoring stop")
		return
	}

	s.running = false

	cancel := s.cancel
	s.cancel = nil

	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.next.Store(0)
}

// Shutdown stops the scheduler and retires it permanently. The instance is
// not reusable afterwards.
func (s *Scheduler[T]) Shutdown() {
	s.Stop()

	s.mu.Lock()
	s.terminated = true
	s.mu.Unlock()
}

func (s *Scheduler[T]) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// SecondsUntilNextExecution reports the countdown to the next tick, 0 when
// stopped or before the first wait is armed. Never negative.
func (s *Scheduler[T]) SecondsUntilNextExecution() int64 {
	if !s.IsRunning() {
		return 0
	}

	next := s.next.Load()

	if next == 0 {
		return 0
	}

	remaining := (next - time.Now().UnixMilli()) / 1000

	if remaining < 0 {
		return 0
	}

	return remaining
}

func (s *Scheduler[T]) run(ctx context.Context) {
	if s.immediate {
		s.executeOnce(ctx)
	}

	for {
		s.next.Store(time.Now().Add(s.interval).UnixMilli())

		timer := time.NewTimer(s.interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-timer.C:
		}

		// A stale wake must not execute a stopped task.
		if !s.IsRunning() || ctx.Err() != nil {
			return
		}

		s.executeOnce(ctx)
	}
}

func (s *Scheduler[T]) executeOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.onError(s.task, fmt.Errorf("task panicked: %v", r))
		}
	}()

	if err := s.execute(ctx, s.task); err != nil {
		s.onError(s.task, err)
	}
}
