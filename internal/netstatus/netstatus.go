// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package netstatus reports whether the board is online. Every backend drives a Switch, which
// only notifies its subscribers on actual transitions.
package netstatus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Sensor is the connectivity capability handed to the scheduler.
type Sensor interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Runner is a sensor that needs a background loop to keep its state current.
type Runner interface {
	Sensor
	Run(ctx context.Context) error
}

// Switch is a thread-safe online flag with transition subscriptions. Subscribers are called
// in subscription order from the goroutine that changed the state. They must not call Set.
type Switch struct {
	online atomic.Bool

	setMu sync.Mutex
	subMu sync.RWMutex
	subs  map[uint64]func(bool)
	order []uint64
	next  uint64
}

// NewSwitch returns a Switch in the given initial state.
func NewSwitch(initial bool) *Switch {
	s := &Switch{subs: make(map[uint64]func(bool))}
	s.online.Store(initial)
	return s
}

// Online reports the current state.
func (s *Switch) Online() bool {
	return s.online.Load()
}

// Set changes the state and notifies the subscribers if it differs from the current one. It
// reports whether a transition happened.
func (s *Switch) Set(online bool) bool {
	s.setMu.Lock()
	defer s.setMu.Unlock()
	if s.online.Swap(online) == online {
		return false
	}

	s.subMu.RLock()
	fns := make([]func(bool), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

// Subscribe registers fn for future transitions and returns a function that removes it.
func (s *Switch) Subscribe(fn func(online bool)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.next++
	id := s.next
	s.subs[id] = fn
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Always is a sensor that is permanently online.
type Always struct {
	*Switch
}

// NewAlways returns a sensor that never goes offline.
func NewAlways() *Always {
	return &Always{NewSwitch(true)}
}

// Run blocks until the context is cancelled.
func (a *Always) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
