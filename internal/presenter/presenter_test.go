// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/flap"
	"github.com/wneessen/flapboard/internal/i18n"
	"github.com/wneessen/flapboard/internal/render"
	"github.com/wneessen/flapboard/internal/vartype"
)

var (
	berlinNoon     = time.Date(2026, 6, 21, 11, 0, 0, 0, time.UTC)
	berlinMidnight = time.Date(2026, 6, 21, 23, 0, 0, 0, time.UTC)

	testOptions = Options{
		Width:           50,
		ShortGap:        8,
		WeatherWidth:    18,
		WeatherShortGap: 4,
		ClockWidth:      11,
		Overflow:        flap.Truncate,
		Scale:           render.ScaleXL,
		WindThreshold:   15,
	}

	testTimetable = board.Timetable{Buses: []board.BusArrival{
		{Number: "12", Destination: "Central", Due: "5 min"},
		{Number: "7A", Destination: "Airport", Due: "Due"},
	}}
	testWeather = board.WeatherSnapshot{
		Temperature: vartype.NewVariable(12.34),
		WindSpeed:   vartype.NewVariable(18.6),
		WindBearing: vartype.NewVariable(270.0),
		Forecast:    vartype.NewVariable("Light rain"),
	}
)

func testPresenter(t *testing.T, opts Options, lang string, now time.Time) *Presenter {
	t.Helper()
	localizer, err := i18n.New(lang)
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	p, err := New(opts, localizer, flap.NewNumbers(language.Make(lang)), clockwork.NewFakeClockAt(now))
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	return p
}

func rowsNamed(frame render.Frame, name string) []render.Row {
	var rows []render.Row
	for _, row := range frame.Rows {
		if row.Name == name {
			rows = append(rows, row)
		}
	}
	return rows
}

func TestNew(t *testing.T) {
	localizer, err := i18n.New("en")
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	numbers := flap.NewNumbers(language.English)

	t.Run("creating a new presenter succeeds", func(t *testing.T) {
		p, err := New(testOptions, localizer, numbers, nil)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		if p == nil {
			t.Fatal("expected presenter to be non-nil")
		}
	})
	t.Run("default scale is XL", func(t *testing.T) {
		opts := testOptions
		opts.Scale = ""
		p, err := New(opts, localizer, numbers, nil)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		if p.opts.Scale != render.ScaleXL {
			t.Errorf("expected default scale XL, got %s", p.opts.Scale)
		}
	})
	t.Run("invalid widths fail", func(t *testing.T) {
		opts := testOptions
		opts.WeatherWidth = 0
		if _, err := New(opts, localizer, numbers, nil); err == nil {
			t.Error("expected error for zero weather width")
		}
	})
	t.Run("missing dependencies fail", func(t *testing.T) {
		if _, err := New(testOptions, nil, numbers, nil); err == nil {
			t.Error("expected error for missing localizer")
		}
		if _, err := New(testOptions, localizer, nil, nil); err == nil {
			t.Error("expected error for missing number formatter")
		}
	})
}

func TestPresenter_BuildFrame(t *testing.T) {
	t.Run("no stop renders only the placeholder", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Clock: " 1:00:00 PM", Timetable: testTimetable})
		if len(frame.Rows) != 1 {
			t.Fatalf("expected a single row, got %d", len(frame.Rows))
		}
		row := frame.Rows[0]
		if row.Name != RowPlaceholder || row.Scale != render.ScaleXL {
			t.Errorf("unexpected placeholder row: %+v", row)
		}
		if strings.TrimSpace(row.Text) != "No stop provided" {
			t.Errorf("expected placeholder text, got %q", row.Text)
		}
		if flap.Width(row.Text) != 50 || row.Length != 50 {
			t.Errorf("expected placeholder of width 50, got %d", flap.Width(row.Text))
		}
	})
	t.Run("no stop placeholder is localized", func(t *testing.T) {
		p := testPresenter(t, testOptions, "de", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{})
		if strings.TrimSpace(frame.Rows[0].Text) != "Keine Haltestelle angegeben" {
			t.Errorf("expected german placeholder, got %q", frame.Rows[0].Text)
		}
	})
	t.Run("clock row is padded at the start", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Clock: "1:02:03 PM"})
		rows := rowsNamed(frame, RowClock)
		if len(rows) != 1 {
			t.Fatalf("expected one clock row, got %d", len(rows))
		}
		if rows[0].Text != " 1:02:03 PM" {
			t.Errorf("expected start-padded clock, got %q", rows[0].Text)
		}
		if rows[0].Pad != flap.PadStart {
			t.Errorf("expected pad mode start, got %s", rows[0].Pad)
		}
	})
	t.Run("bus rows are justified", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Timetable: testTimetable})
		rows := rowsNamed(frame, RowBus)
		if len(rows) != 2 {
			t.Fatalf("expected 2 bus rows, got %d", len(rows))
		}
		first := rows[0].Text
		if flap.Width(first) != 50 {
			t.Errorf("expected bus row width 50, got %d", flap.Width(first))
		}
		if !strings.HasPrefix(first, "12        Central") {
			t.Errorf("expected short gap of 8 after the number, got %q", first)
		}
		if !strings.HasSuffix(first, "5 min") {
			t.Errorf("expected row to end with the due time, got %q", first)
		}
		if rows[0].Scale != render.ScaleXL || rows[0].Pad != flap.PadStart {
			t.Errorf("unexpected bus row attributes: %+v", rows[0])
		}
		if !strings.HasPrefix(rows[1].Text, "7A") {
			t.Errorf("expected order to be kept, got %q", rows[1].Text)
		}
	})
	t.Run("empty timetable renders the no buses row", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234"})
		rows := rowsNamed(frame, RowNoBuses)
		if len(rows) != 1 {
			t.Fatalf("expected no buses row, got %d", len(rows))
		}
		if len(rowsNamed(frame, RowBus)) != 0 {
			t.Error("expected no bus rows")
		}
	})
	t.Run("weather rows are formatted", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Weather: testWeather})

		tests := map[string]string{
			RowTemperature: "Temp" + strings.Repeat(" ", 9) + "12.3C",
			RowWindSpeed:   "Wind" + strings.Repeat(" ", 8) + "19 MPH",
			RowWindBearing: "Dir" + strings.Repeat(" ", 8) + "270 DEG",
			RowForecast:    "Light rain" + strings.Repeat(" ", 8),
		}
		for name, want := range tests {
			row, ok := frame.Row(name)
			if !ok {
				t.Errorf("expected row %s", name)
				continue
			}
			if row.Text != want {
				t.Errorf("row %s: expected %q, got %q", name, want, row.Text)
			}
			if row.Length != 18 {
				t.Errorf("row %s: expected length 18, got %d", name, row.Length)
			}
		}
	})
	t.Run("glyph visibility follows the weather", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Weather: testWeather})
		if row, _ := frame.Row(RowWindGlyph); !row.Visible {
			t.Error("expected wind glyph to be visible above the threshold")
		}
		if row, _ := frame.Row(RowRainGlyph); !row.Visible {
			t.Error("expected rain glyph to be visible for rain")
		}
		if row, _ := frame.Row(RowWindDirection); row.Text != windDirIcons["W"] || !row.Visible {
			t.Errorf("expected westerly wind arrow, got %+v", row)
		}

		calm := board.WeatherSnapshot{
			WindSpeed: vartype.NewVariable(3.0),
			Forecast:  vartype.NewVariable("Clear sky"),
		}
		frame = p.BuildFrame(board.Snapshot{Stop: "1234", Weather: calm})
		if row, _ := frame.Row(RowWindGlyph); row.Visible {
			t.Error("expected wind glyph to be hidden below the threshold")
		}
		if row, _ := frame.Row(RowRainGlyph); row.Visible {
			t.Error("expected rain glyph to be hidden for clear sky")
		}
		if row, _ := frame.Row(RowWindDirection); row.Visible {
			t.Error("expected wind direction to be hidden without a bearing")
		}
	})
	t.Run("absent weather reads as zero", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234"})
		if row, _ := frame.Row(RowTemperature); !strings.HasSuffix(row.Text, "0.0C") {
			t.Errorf("expected zero temperature, got %q", row.Text)
		}
		if row, _ := frame.Row(RowForecast); strings.TrimSpace(row.Text) != "" {
			t.Errorf("expected empty forecast, got %q", row.Text)
		}
		if row, _ := frame.Row(RowWindGlyph); row.Visible {
			t.Error("expected wind glyph to be hidden without wind data")
		}
	})
	t.Run("long destinations are truncated", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		table := board.Timetable{Buses: []board.BusArrival{{
			Number: "12", Destination: strings.Repeat("Very Long Destination ", 4), Due: "5 min",
		}}}
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Timetable: table})
		row := rowsNamed(frame, RowBus)[0]
		if flap.Width(row.Text) != 50 {
			t.Errorf("expected truncated row width 50, got %d", flap.Width(row.Text))
		}
	})
	t.Run("long destinations are rejected", func(t *testing.T) {
		opts := testOptions
		opts.Overflow = flap.Reject
		p := testPresenter(t, opts, "en", berlinNoon)
		table := board.Timetable{Buses: []board.BusArrival{{
			Number: "12", Destination: strings.Repeat("Very Long Destination ", 4), Due: "5 min",
		}}}
		frame := p.BuildFrame(board.Snapshot{Stop: "1234", Timetable: table})
		row := rowsNamed(frame, RowBus)[0]
		if row.Text != strings.Repeat(flap.PlaceholderChar, 50) {
			t.Errorf("expected overflow placeholder, got %q", row.Text)
		}
	})
}

func TestPresenter_Daylight(t *testing.T) {
	opts := testOptions
	opts.HasLocation = true
	opts.Latitude = 52.52
	opts.Longitude = 13.405

	t.Run("no daylight rows without a location", func(t *testing.T) {
		p := testPresenter(t, testOptions, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234"})
		if _, ok := frame.Row(RowDaylight); ok {
			t.Error("expected no daylight row without coordinates")
		}
	})
	t.Run("sun during the day", func(t *testing.T) {
		p := testPresenter(t, opts, "en", berlinNoon)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234"})
		row, ok := frame.Row(RowDaylight)
		if !ok {
			t.Fatal("expected daylight row")
		}
		if row.Text != SunGlyph {
			t.Errorf("expected sun glyph, got %q", row.Text)
		}
		if moon, _ := frame.Row(RowMoonPhase); moon.Visible {
			t.Error("expected moon phase row to be hidden during the day")
		}
	})
	t.Run("moon at night", func(t *testing.T) {
		p := testPresenter(t, opts, "en", berlinMidnight)
		frame := p.BuildFrame(board.Snapshot{Stop: "1234"})
		row, _ := frame.Row(RowDaylight)
		phase := moonPhase(berlinMidnight)
		if row.Text != MoonPhaseIcon[phase] {
			t.Errorf("expected moon glyph for %s, got %q", phase, row.Text)
		}
		moon, ok := frame.Row(RowMoonPhase)
		if !ok || !moon.Visible {
			t.Fatal("expected visible moon phase row at night")
		}
		if strings.TrimSpace(moon.Text) != phase {
			t.Errorf("expected moon phase %q, got %q", phase, moon.Text)
		}
	})
}

func TestCompass(t *testing.T) {
	tests := map[float64]string{
		0: "N", 22: "N", 23: "NE", 90: "E", 180: "S", 270: "W", 315: "NW", 359: "N", 360: "N", -90: "W",
	}
	for deg, want := range tests {
		if got := compass(deg); got != want {
			t.Errorf("compass(%f): expected %s, got %s", deg, want, got)
		}
	}
}
