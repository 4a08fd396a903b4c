// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package flap

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	TemperatureUnit = "C"
	WindSpeedUnit   = "MPH"
	BearingUnit     = "DEG"
)

// Numbers renders the numeric weather values for the board.
type Numbers struct {
	printer *message.Printer
}

// NewNumbers returns a Numbers formatter using the digit conventions of lang.
func NewNumbers(lang language.Tag) *Numbers {
	return &Numbers{printer: message.NewPrinter(lang)}
}

// Temperature renders t with exactly one decimal digit.
func (n *Numbers) Temperature(t float64) string {
	return n.printer.Sprintf("%.1f", t) + TemperatureUnit
}

// WindSpeed renders the speed as a rounded integer.
func (n *Numbers) WindSpeed(speed float64) string {
	return n.printer.Sprintf("%d", int(math.Round(speed))) + " " + WindSpeedUnit
}

// Bearing renders the bearing as an integer between 0 and 359.
func (n *Numbers) Bearing(deg float64) string {
	bearing := int(math.Round(deg)) % 360
	if bearing < 0 {
		bearing += 360
	}
	return n.printer.Sprintf("%d", bearing) + " " + BearingUnit
}
