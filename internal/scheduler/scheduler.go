// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package scheduler runs board tasks on gocron and restarts the connectivity-gated ones
// whenever the sensor comes back online.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/wneessen/flapboard/internal/job"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/netstatus"
	"github.com/wneessen/flapboard/internal/observability"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

type Scheduler struct {
	cron   gocron.Scheduler
	sensor netstatus.Sensor
	logger *logger.Logger

	mu      sync.Mutex
	tasks   []*job.Task
	started bool
	ctx     context.Context
	unsub   func()
	wg      sync.WaitGroup
}

// New returns a Scheduler driven by clock. The sensor may be nil when no task is gated.
func New(clock clockwork.Clock, sensor netstatus.Sensor, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cron, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{cron: cron, sensor: sensor, logger: log}, nil
}

// Add registers task to run every interval, starting immediately once the scheduler starts.
func (s *Scheduler) Add(ctx context.Context, task *job.Task, interval time.Duration) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	if interval <= 0 {
		return fmt.Errorf("interval for %s must be positive", task.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) { task.Tick(ctx) }),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName(task.Name()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", task.Name(), err)
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start moves every task to the scheduled state, follows the sensor and starts the timers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx = ctx

	for _, task := range s.tasks {
		task.Start()
	}
	if s.sensor != nil {
		observability.SetOnline(s.sensor.Online())
		s.unsub = s.sensor.Subscribe(s.onTransition)
	}
	s.cron.Start()
	s.logger.Debug("scheduler started", slog.Int("tasks", len(s.tasks)))
	return nil
}

// TriggerGated runs every gated task once, outside of its timer. Tasks that are already
// running are skipped.
func (s *Scheduler) TriggerGated(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for _, task := range s.tasks {
		if !task.Gated() {
			continue
		}
		s.wg.Add(1)
		go func(task *job.Task) {
			defer s.wg.Done()
			task.Trigger(ctx)
		}(task)
	}
}

// Tasks returns the registered tasks.
func (s *Scheduler) Tasks() []*job.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*job.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Shutdown stops all tasks together and waits for triggered runs to finish.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	for _, task := range s.tasks {
		task.Stop()
	}
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	var err error
	if wasStarted {
		err = s.cron.Shutdown()
	}
	s.wg.Wait()
	return err
}

func (s *Scheduler) onTransition(online bool) {
	observability.SetOnline(online)
	s.logger.Debug("connectivity transition", slog.Bool("online", online))
	if !online {
		return
	}
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	s.TriggerGated(ctx)
}
