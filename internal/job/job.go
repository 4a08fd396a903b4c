// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package job models a periodic board task. A Task is driven by two inputs, the timer tick
// and the online trigger, and never runs its action concurrently with itself.
package job

import (
	"context"
	"sync/atomic"

	"github.com/wneessen/flapboard/internal/netstatus"
	"github.com/wneessen/flapboard/internal/observability"
)

// State is the lifecycle state of a Task.
type State int32

const (
	// StateIdle is the state before Start and after Stop. Ticks are ignored.
	StateIdle State = iota
	// StateScheduled waits for the next tick or trigger.
	StateScheduled
	// StateInFlight runs the action. Ticks are skipped, triggers of gated tasks wait for completion.
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateInFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Task is a named action that runs on timer ticks and online triggers. A gated task only
// runs while its sensor reports online.
type Task struct {
	name   string
	action func(context.Context)
	sensor netstatus.Sensor

	state   atomic.Int32
	stopped atomic.Bool
	runs    atomic.Uint64

	// pending holds a trigger that arrived while the action was running.
	pending atomic.Bool
	// served is set once an invocation ran since Start, ticked once the first tick arrived.
	served atomic.Bool
	ticked atomic.Bool
}

// New creates a Task in StateIdle. A nil sensor makes the task ungated.
func New(name string, action func(context.Context), sensor netstatus.Sensor) *Task {
	return &Task{
		name:   name,
		action: action,
		sensor: sensor,
	}
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Gated reports whether the task depends on connectivity.
func (t *Task) Gated() bool {
	return t.sensor != nil
}

// State returns the current state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Runs returns how often the action was invoked.
func (t *Task) Runs() uint64 {
	return t.runs.Load()
}

// Start moves an idle task to StateScheduled.
func (t *Task) Start() {
	t.stopped.Store(false)
	t.pending.Store(false)
	t.served.Store(false)
	t.ticked.Store(false)
	t.state.CompareAndSwap(int32(StateIdle), int32(StateScheduled))
}

// Stop moves the task back to StateIdle. A running action completes into StateIdle.
func (t *Task) Stop() {
	t.stopped.Store(true)
	t.pending.Store(false)
	t.state.CompareAndSwap(int32(StateScheduled), int32(StateIdle))
}

// Tick is the timer input. It reports whether the action ran. The first tick after Start is
// dropped when a trigger already ran the action.
func (t *Task) Tick(ctx context.Context) bool {
	if !t.ticked.Swap(true) && t.served.Load() {
		return false
	}
	return t.run(ctx)
}

// Trigger is the online-transition input. It runs the action once, independent of the timer,
// and reports whether it ran. A trigger that finds a gated task in flight is kept and runs as
// soon as the running action returns.
func (t *Task) Trigger(ctx context.Context) bool {
	if t.run(ctx) {
		return true
	}
	if t.sensor == nil || t.State() != StateInFlight {
		return false
	}
	t.pending.Store(true)

	// The running action may have returned before the trigger was stored.
	if t.State() != StateInFlight && t.pending.CompareAndSwap(true, false) {
		return t.run(ctx)
	}
	return false
}

func (t *Task) run(ctx context.Context) bool {
	if t.action == nil || ctx.Err() != nil {
		return false
	}
	if t.sensor != nil && !t.sensor.Online() {
		if t.State() == StateScheduled {
			observability.RecordSkippedTick(t.name, observability.SkipOffline)
		}
		return false
	}
	if !t.state.CompareAndSwap(int32(StateScheduled), int32(StateInFlight)) {
		if t.State() == StateInFlight {
			observability.RecordSkippedTick(t.name, observability.SkipInFlight)
		}
		return false
	}
	t.execute(ctx)

	if t.pending.CompareAndSwap(true, false) {
		t.run(ctx)
	}
	return true
}

func (t *Task) execute(ctx context.Context) {
	defer t.complete()
	t.served.Store(true)
	t.runs.Add(1)
	t.action(ctx)
}

func (t *Task) complete() {
	next := StateScheduled
	if t.stopped.Load() {
		next = StateIdle
	}
	t.state.Store(int32(next))
}
