// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package flap formats text for fixed-width split-flap display units. Every string it
// returns is exactly as wide as the unit it is meant for.
package flap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// OverflowPolicy decides what happens when the fields do not fit into the display width.
type OverflowPolicy int

const (
	// Truncate joins the fields with single spaces and cuts the result at the display width.
	Truncate OverflowPolicy = iota
	// Reject refuses to format the fields and returns ErrOverflow.
	Reject
)

// PadMode selects on which side a single field is padded.
type PadMode string

const (
	PadStart PadMode = "start"
	PadEnd   PadMode = "end"
)

// PlaceholderChar fills the placeholder of a rejected row.
const PlaceholderChar = "-"

var (
	ErrOverflow      = errors.New("fields exceed the display width")
	ErrInvalidLayout = errors.New("display width must be positive")
)

// Layout describes a display unit: its width in cells, the gap after the first field and what
// to do with fields that are too long.
type Layout struct {
	Width    int
	ShortGap int
	Overflow OverflowPolicy
}

// ParseOverflowPolicy returns the policy for the given name.
func ParseOverflowPolicy(name string) (OverflowPolicy, error) {
	switch strings.ToLower(name) {
	case "truncate", "":
		return Truncate, nil
	case "reject":
		return Reject, nil
	default:
		return Truncate, fmt.Errorf("unsupported overflow policy: %s", name)
	}
}

func (p OverflowPolicy) String() string {
	if p == Reject {
		return "reject"
	}
	return "truncate"
}

// Width returns the number of display cells s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Justify aligns the first field to the start and the last field to the end of the unit. A
// short gap follows the first field, the remaining space goes before the last field:
//
//	f1 + short + long + f2
//	f1 + short + f2 + long + f3
//
// Fields between the second and the last one are joined to the second with single spaces. If
// the fields fit but leave less room than the short gap, the short gap shrinks and the long
// gap is empty.
func (l Layout) Justify(fields ...string) (string, error) {
	if l.Width <= 0 {
		return "", ErrInvalidLayout
	}
	switch len(fields) {
	case 0:
		return strings.Repeat(" ", l.Width), nil
	case 1:
		return l.Pad(fields[0], PadEnd)
	}

	first, last := fields[0], fields[len(fields)-1]
	middle := strings.Join(fields[1:len(fields)-1], " ")
	used := Width(first) + Width(middle) + Width(last)
	if used > l.Width {
		return l.overflow(strings.Join(fields, " "))
	}

	spacing := l.Width - used
	short := min(max(l.ShortGap, 0), spacing)
	long := spacing - short
	return first + strings.Repeat(" ", short) + middle + strings.Repeat(" ", long) + last, nil
}

// Pad pads a single field to the unit width on the side given by mode.
func (l Layout) Pad(text string, mode PadMode) (string, error) {
	if l.Width <= 0 {
		return "", ErrInvalidLayout
	}
	if Width(text) > l.Width {
		return l.overflow(text)
	}
	if mode == PadStart {
		return runewidth.FillLeft(text, l.Width), nil
	}
	return runewidth.FillRight(text, l.Width), nil
}

// Placeholder returns the string shown instead of a rejected row.
func (l Layout) Placeholder() string {
	return strings.Repeat(PlaceholderChar, max(l.Width, 0))
}

// MustJustify justifies the fields and falls back to the placeholder on overflow.
func (l Layout) MustJustify(fields ...string) string {
	text, err := l.Justify(fields...)
	if err != nil {
		return l.Placeholder()
	}
	return text
}

// MustPad pads the field and falls back to the placeholder on overflow.
func (l Layout) MustPad(text string, mode PadMode) string {
	padded, err := l.Pad(text, mode)
	if err != nil {
		return l.Placeholder()
	}
	return padded
}

func (l Layout) overflow(text string) (string, error) {
	if l.Overflow == Reject {
		return "", fmt.Errorf("%w: %d cells in a %d cell unit", ErrOverflow, Width(text), l.Width)
	}
	// Wide runes may leave a cell empty after the cut.
	return runewidth.FillRight(runewidth.Truncate(text, l.Width, ""), l.Width), nil
}
