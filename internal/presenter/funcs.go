// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/wneessen/go-moonphase"
)

// compass returns the compass sector for a bearing in degrees.
func compass(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/45)) % len(compassPoints)
	return compassPoints[idx]
}

// isDaytime reports whether the sun is up at the given coordinates.
func isDaytime(lat, lon float64, now time.Time) bool {
	utc := now.UTC()
	rise, set := sunrise.SunriseSunset(lat, lon, utc.Year(), utc.Month(), utc.Day())
	if rise.IsZero() || set.IsZero() {
		return false
	}
	return utc.After(rise) && utc.Before(set)
}

// moonPhase returns the moon phase name for now.
func moonPhase(now time.Time) string {
	return moonphase.New(now).PhaseName()
}
