// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package board holds the display state of the flap board: the bus timetable, the weather
// snapshot and the clock string, together with the store that applies fetch results.
package board

import (
	"github.com/wneessen/flapboard/internal/vartype"
)

// BusArrival is a single bus arriving at the stop. Number and Due are pre-formatted text.
type BusArrival struct {
	Number      string `json:"number"`
	Destination string `json:"destination"`
	Due         string `json:"due"`
}

// Timetable is the ordered list of arrivals as returned by the remote source.
type Timetable struct {
	Buses []BusArrival `json:"buses"`
}

// WeatherSnapshot is the current weather at the stop. Fields missing from a response stay
// unset and read as their zero value.
type WeatherSnapshot struct {
	Temperature vartype.VarFloat64 `json:"temperature"`
	WindSpeed   vartype.VarFloat64 `json:"windSpeed"`
	WindBearing vartype.VarFloat64 `json:"windBearing"`
	Forecast    vartype.VarString  `json:"forecast"`
}

// StopID identifies the transit stop the remote resources are scoped to.
type StopID string

// IsSet reports whether a stop was provided for the session.
func (s StopID) IsSet() bool {
	return s != ""
}

func (s StopID) String() string {
	return string(s)
}

// Resource names a remote resource of the board.
type Resource string

const (
	ResourceTimetable Resource = "timetable"
	ResourceWeather   Resource = "weather"
)

// Clone returns a copy of the timetable that shares no memory with t.
func (t Timetable) Clone() Timetable {
	buses := make([]BusArrival, len(t.Buses))
	copy(buses, t.Buses)
	return Timetable{Buses: buses}
}
