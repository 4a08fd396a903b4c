// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultFormat renders the time on a 12-hour dial with seconds.
const DefaultFormat = "3:04:05 PM"

// Source formats the current time of its clock in a fixed location.
type Source struct {
	clock    clockwork.Clock
	location *time.Location
	format   string
}

// New returns a Source for the named IANA timezone. "Local" uses the system timezone, an empty
// name UTC.
func New(clock clockwork.Clock, timezone, format string) (*Source, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	if format == "" {
		format = DefaultFormat
	}
	return &Source{clock: clock, location: location, format: format}, nil
}

// Now returns the formatted current time.
func (s *Source) Now() string {
	return s.clock.Now().In(s.location).Format(s.format)
}

// Width returns the number of characters the formatted time occupies at most.
func (s *Source) Width() int {
	// Two-digit hours and days give the widest rendering.
	widest := time.Date(2000, time.December, 22, 22, 22, 22, 0, time.UTC)
	return len(widest.Format(s.format))
}
