// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter turns the display state into board frames.
package presenter

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/vorlif/spreak"
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/flap"
	"github.com/wneessen/flapboard/internal/render"
	"github.com/wneessen/flapboard/internal/weather"
)

// Row names.
const (
	RowPlaceholder   = "placeholder"
	RowClock         = "clock"
	RowBus           = "bus"
	RowNoBuses       = "no_buses"
	RowTemperature   = "temperature"
	RowWindSpeed     = "wind_speed"
	RowWindBearing   = "wind_bearing"
	RowForecast      = "forecast"
	RowWindGlyph     = "wind_glyph"
	RowRainGlyph     = "rain_glyph"
	RowWindDirection = "wind_direction"
	RowDaylight      = "daylight"
	RowMoonPhase     = "moon_phase"
)

// Options controls the board layout.
type Options struct {
	Width           int
	ShortGap        int
	WeatherWidth    int
	WeatherShortGap int
	ClockWidth      int
	Overflow        flap.OverflowPolicy
	Scale           render.Scale
	WindThreshold   float64

	HasLocation bool
	Latitude    float64
	Longitude   float64
}

type Presenter struct {
	opts      Options
	localizer *spreak.Localizer
	numbers   *flap.Numbers
	clock     clockwork.Clock
}

// New returns a Presenter. The clock decides day and night for the daylight rows.
func New(opts Options, localizer *spreak.Localizer, numbers *flap.Numbers, clock clockwork.Clock) (*Presenter, error) {
	if opts.Width <= 0 || opts.WeatherWidth <= 0 || opts.ClockWidth <= 0 {
		return nil, fmt.Errorf("%w: %d/%d/%d", flap.ErrInvalidLayout, opts.Width, opts.WeatherWidth,
			opts.ClockWidth)
	}
	if localizer == nil {
		return nil, fmt.Errorf("localizer is required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number formatter is required")
	}
	if opts.Scale == "" {
		opts.Scale = render.ScaleXL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Presenter{opts: opts, localizer: localizer, numbers: numbers, clock: clock}, nil
}

// BuildFrame derives the board content from snap.
func (p *Presenter) BuildFrame(snap board.Snapshot) render.Frame {
	frame := render.Frame{Generated: p.clock.Now()}
	if !snap.Stop.IsSet() {
		frame.Rows = append(frame.Rows, p.padRow(RowPlaceholder, p.loc(labelNoStop), p.busLayout(), flap.PadEnd,
			render.ScaleXL, true))
		return frame
	}

	frame.Rows = append(frame.Rows, p.clockRow(snap.Clock))
	frame.Rows = append(frame.Rows, p.busRows(snap.Timetable)...)
	frame.Rows = append(frame.Rows, p.weatherRows(snap.Weather)...)
	if p.opts.HasLocation {
		frame.Rows = append(frame.Rows, p.daylightRows()...)
	}
	return frame
}

func (p *Presenter) clockRow(clock string) render.Row {
	layout := flap.Layout{Width: p.opts.ClockWidth, Overflow: p.opts.Overflow}
	return p.padRow(RowClock, clock, layout, flap.PadStart, render.ScaleL, true)
}

func (p *Presenter) busRows(table board.Timetable) []render.Row {
	layout := p.busLayout()
	if len(table.Buses) == 0 {
		return []render.Row{p.padRow(RowNoBuses, p.loc(labelNoBuses), layout, flap.PadEnd, p.opts.Scale, true)}
	}
	rows := make([]render.Row, 0, len(table.Buses))
	for _, bus := range table.Buses {
		rows = append(rows, render.Row{
			Name:    RowBus,
			Text:    layout.MustJustify(bus.Number, bus.Destination, bus.Due),
			Length:  layout.Width,
			Scale:   p.opts.Scale,
			Pad:     flap.PadStart,
			Visible: true,
		})
	}
	return rows
}

func (p *Presenter) weatherRows(w board.WeatherSnapshot) []render.Row {
	layout := flap.Layout{Width: p.opts.WeatherWidth, ShortGap: p.opts.WeatherShortGap, Overflow: p.opts.Overflow}
	speed := w.WindSpeed.Value()
	forecast := w.Forecast.Value()
	direction := windDirIcons[compass(w.WindBearing.Value())]

	return []render.Row{
		p.justifiedRow(RowTemperature, layout, p.loc(labelTemperature), p.numbers.Temperature(w.Temperature.Value())),
		p.justifiedRow(RowWindSpeed, layout, p.loc(labelWind), p.numbers.WindSpeed(speed)),
		p.justifiedRow(RowWindBearing, layout, p.loc(labelBearing), p.numbers.Bearing(w.WindBearing.Value())),
		p.padRow(RowForecast, p.forecast(forecast), layout, flap.PadEnd, render.ScaleM, true),
		glyphRow(RowWindGlyph, WindGlyph, w.WindSpeed.IsSet() && speed >= p.opts.WindThreshold),
		glyphRow(RowRainGlyph, RainGlyph, weather.IsPrecipitation(forecast)),
		glyphRow(RowWindDirection, direction, w.WindBearing.IsSet()),
	}
}

func (p *Presenter) daylightRows() []render.Row {
	now := p.clock.Now()
	day := isDaytime(p.opts.Latitude, p.opts.Longitude, now)
	phase := moonPhase(now)

	glyph := SunGlyph
	if !day {
		glyph = MoonPhaseIcon[phase]
	}
	name := phase
	if msgID, ok := moonPhaseNames[phase]; ok {
		name = p.loc(msgID)
	}
	layout := flap.Layout{Width: p.opts.WeatherWidth, Overflow: p.opts.Overflow}
	return []render.Row{
		glyphRow(RowDaylight, glyph, true),
		p.padRow(RowMoonPhase, name, layout, flap.PadEnd, render.ScaleM, !day),
	}
}

func (p *Presenter) busLayout() flap.Layout {
	return flap.Layout{Width: p.opts.Width, ShortGap: p.opts.ShortGap, Overflow: p.opts.Overflow}
}

func (p *Presenter) justifiedRow(name string, layout flap.Layout, fields ...string) render.Row {
	return render.Row{
		Name:    name,
		Text:    layout.MustJustify(fields...),
		Length:  layout.Width,
		Scale:   render.ScaleM,
		Pad:     flap.PadStart,
		Visible: true,
	}
}

func (p *Presenter) padRow(name, text string, layout flap.Layout, mode flap.PadMode, scale render.Scale,
	visible bool,
) render.Row {
	return render.Row{
		Name:    name,
		Text:    layout.MustPad(text, mode),
		Length:  layout.Width,
		Scale:   scale,
		Pad:     mode,
		Visible: visible,
	}
}

func (p *Presenter) loc(id localize.MsgID) string {
	return p.localizer.Get(id)
}

// forecast translates known forecast categories. Unknown text is shown as received.
func (p *Presenter) forecast(text string) string {
	if text == "" {
		return ""
	}
	return p.loc(localize.MsgID(text))
}

func glyphRow(name, glyph string, visible bool) render.Row {
	return render.Row{
		Name:    name,
		Text:    glyph,
		Length:  flap.Width(glyph),
		Scale:   render.ScaleS,
		Pad:     flap.PadEnd,
		Visible: visible,
	}
}
