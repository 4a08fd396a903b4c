// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package netstatus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/jonboulle/clockwork"

	"github.com/wneessen/flapboard/internal/logger"
)

const (
	login1Interface   = "org.freedesktop.login1.Manager"
	login1WatchMember = "PrepareForSleep"

	debounceWindow     = 2 * time.Second
	networkWakeupDelay = 10 * time.Second
)

// ResumeWatcher calls a function whenever logind reports that the system woke up.
type ResumeWatcher struct {
	clock    clockwork.Clock
	log      *logger.Logger
	onResume func(context.Context)
	delay    time.Duration

	mu         sync.Mutex
	lastResume time.Time
}

// NewResumeWatcher returns a watcher that runs onResume after a short wake-up delay.
func NewResumeWatcher(clock clockwork.Clock, log *logger.Logger, onResume func(context.Context)) (*ResumeWatcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if onResume == nil {
		return nil, fmt.Errorf("resume callback is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResumeWatcher{clock: clock, log: log, onResume: onResume, delay: networkWakeupDelay}, nil
}

// Run monitors PrepareForSleep signals and reconnects to the system bus as needed.
func (r *ResumeWatcher) Run(ctx context.Context) error {
	for {
		conn := connectSystemBus(ctx, r.log)
		if conn == nil {
			return nil
		}

		if err := conn.AddMatchSignal(dbus.WithMatchInterface(login1Interface),
			dbus.WithMatchMember(login1WatchMember),
		); err != nil {
			r.log.Error("failed to subscribe to dbus signal", slog.String("interface", login1Interface),
				slog.String("member", login1WatchMember), logger.Err(err))
			_ = conn.Close()
			select {
			case <-time.After(subscribeRetryDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		sigCh := make(chan *dbus.Signal, signalBufferSize)
		conn.Signal(sigCh)
		r.log.Debug("subscribed to dbus signal", slog.String("interface", login1Interface),
			slog.String("member", login1WatchMember))
		r.handleSignals(ctx, sigCh)

		conn.RemoveSignal(sigCh)
		if err := conn.Close(); err != nil {
			r.log.Debug("failed to close system bus connection", logger.Err(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (r *ResumeWatcher) handleSignals(ctx context.Context, sigCh chan *dbus.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sgn, ok := <-sigCh:
			if !ok {
				return
			}
			if isResumeSignal(sgn) {
				r.handleResume(ctx)
			}
		}
	}
}

// isResumeSignal reports whether sgn is a PrepareForSleep(false) signal.
func isResumeSignal(sgn *dbus.Signal) bool {
	if sgn == nil || len(sgn.Body) != 1 {
		return false
	}
	sleeping, ok := sgn.Body[0].(bool)
	return ok && !sleeping
}

// handleResume debounces consecutive resume events and gives the network time to come back.
// It reports whether the callback ran.
func (r *ResumeWatcher) handleResume(ctx context.Context) bool {
	now := r.clock.Now()
	r.mu.Lock()
	if !r.lastResume.IsZero() && now.Sub(r.lastResume) < debounceWindow {
		r.mu.Unlock()
		return false
	}
	r.lastResume = now
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-r.clock.After(r.delay):
		}
	}

	r.log.Debug("resuming from sleep, refreshing board data")
	r.onResume(ctx)
	return true
}
