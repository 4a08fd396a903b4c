// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import "github.com/vorlif/spreak/localize"

// Board glyphs.
const (
	WindGlyph = "\U0001F4A8" // dash symbol
	RainGlyph = "\u2614"     // umbrella with rain drops
	SunGlyph  = "\U0001F31E" // sun with face
)

// MoonPhaseIcon maps moon phase names to their glyphs.
var MoonPhaseIcon = map[string]string{
	"New Moon":        "\U0001F311",
	"Waxing Crescent": "\U0001F312",
	"First Quarter":   "\U0001F313",
	"Waxing Gibbous":  "\U0001F314",
	"Full Moon":       "\U0001F315",
	"Waning Gibbous":  "\U0001F316",
	"Third Quarter":   "\U0001F317",
	"Waning Crescent": "\U0001F318",
}

// moonPhaseNames holds the translatable moon phase names.
var moonPhaseNames = map[string]localize.MsgID{
	"New Moon":        "New Moon",
	"Waxing Crescent": "Waxing Crescent",
	"First Quarter":   "First Quarter",
	"Waxing Gibbous":  "Waxing Gibbous",
	"Full Moon":       "Full Moon",
	"Waning Gibbous":  "Waning Gibbous",
	"Third Quarter":   "Third Quarter",
	"Waning Crescent": "Waning Crescent",
}

// Row labels.
var (
	labelNoStop      localize.MsgID = "No stop provided"
	labelNoBuses     localize.MsgID = "No buses"
	labelTemperature localize.MsgID = "Temp"
	labelWind        localize.MsgID = "Wind"
	labelBearing     localize.MsgID = "Dir"
)

// compassPoints are the eight compass sectors, clockwise from north.
var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// windDirIcons maps a compass sector to the arrow pointing where the wind blows from.
var windDirIcons = map[string]string{
	"N":  "↑",
	"NE": "↗",
	"E":  "→",
	"SE": "↘",
	"S":  "↓",
	"SW": "↙",
	"W":  "←",
	"NW": "↖",
}
