// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package board

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the display state.
type Snapshot struct {
	Stop             StopID
	Timetable        Timetable
	Weather          WeatherSnapshot
	Clock            string
	TimetableUpdated time.Time
	WeatherUpdated   time.Time
}

// Store holds the display state. Values are only ever replaced wholesale. Every fetch takes a
// sequence number before it is issued and a result is only applied when no newer result was
// applied before it.
type Store struct {
	mu      sync.RWMutex
	stop    StopID
	issued  map[Resource]uint64
	applied map[Resource]uint64

	timetable        Timetable
	weather          WeatherSnapshot
	clock            string
	timetableUpdated time.Time
	weatherUpdated   time.Time
}

// NewStore returns a Store with the initial display state for the given stop.
func NewStore(stop StopID) *Store {
	return &Store{
		stop:      stop,
		issued:    make(map[Resource]uint64),
		applied:   make(map[Resource]uint64),
		timetable: Timetable{Buses: []BusArrival{}},
	}
}

// Stop returns the stop the store was created for.
func (s *Store) Stop() StopID {
	return s.stop
}

// NextSequence returns the sequence number for a fetch of res that is about to be issued.
func (s *Store) NextSequence(res Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[res]++
	return s.issued[res]
}

// ApplyTimetable replaces the timetable if seq is newer than the last applied one. It reports
// whether the value was applied.
func (s *Store) ApplyTimetable(seq uint64, table Timetable, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isFresh(ResourceTimetable, seq) {
		return false
	}
	s.timetable = table.Clone()
	s.timetableUpdated = at
	return true
}

// ApplyWeather replaces the weather snapshot if seq is newer than the last applied one. It
// reports whether the value was applied.
func (s *Store) ApplyWeather(seq uint64, weather WeatherSnapshot, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isFresh(ResourceWeather, seq) {
		return false
	}
	s.weather = weather
	s.weatherUpdated = at
	return true
}

// SetClock replaces the clock string.
func (s *Store) SetClock(clock string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// Snapshot returns a copy of the current display state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Stop:             s.stop,
		Timetable:        s.timetable.Clone(),
		Weather:          s.weather,
		Clock:            s.clock,
		TimetableUpdated: s.timetableUpdated,
		WeatherUpdated:   s.weatherUpdated,
	}
}

// isFresh must be called with the write lock held.
func (s *Store) isFresh(res Resource, seq uint64) bool {
	if seq <= s.applied[res] {
		return false
	}
	s.applied[res] = seq
	return true
}
