// Package task runs scheduled chat tasks: immutable task definitions driven
// by per-task schedulers, with the resulting exchanges appended to sessions.
package task

import (
	"time"

	"github.com/relaygw/relay/pkg/fault"
)

// Definition describes one scheduled chat task. It is immutable after
// creation; the session binding lives separately (see Store.Bind) so the
// value never grows hidden mutable state.
type Definition struct {
	ID string

	Title string

	// Request is resent verbatim on every tick.
	Request string

	// Interval between ticks. Must be positive.
	Interval time.Duration

	// ExecuteImmediately fires the first tick on start instead of waiting
	// one interval.
	ExecuteImmediately bool

	// Provider and Model optionally override the gateway defaults.
	Provider string
	Model    string

	CreatedAt time.Time
}

func (d Definition) Validate() error {
	var reasons []string

	if d.Request == "" {
		reasons = append(reasons, "task request must not be blank")
	}

	if d.Interval <= 0 {
		reasons = append(reasons, "interval must be greater than zero")
	}

	if len(reasons) > 0 {
		return fault.Validation("invalid task definition", reasons...)
	}

	return nil
}

// Status is the externally visible state of a running task.
type Status struct {
	Definition Definition

	SessionID string

	Running bool

	SecondsUntilNextExecution int64
}
