// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/observability"
	"github.com/wneessen/flapboard/internal/remote"
	"github.com/wneessen/flapboard/internal/vartype"
	"github.com/wneessen/flapboard/internal/weather"
)

const (
	name       = "open-meteo"
	apiTimeout = time.Second * 10
)

// OpenMeteo reads the current weather at fixed coordinates from the Open-Meteo API. The stop is
// not part of the request, the coordinates of the stop are configured instead.
type OpenMeteo struct {
	client   omgo.Client
	location omgo.Location
	log      *logger.Logger
}

func New(log *logger.Logger, latitude, longitude float64) (*OpenMeteo, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}
	location, err := omgo.NewLocation(latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("failed create Open-Meteo location from coordinates: %w", err)
	}

	return &OpenMeteo{client: client, location: location, log: log}, nil
}

func (o *OpenMeteo) Name() string {
	return name
}

func (o *OpenMeteo) GetWeather(ctx context.Context, stop board.StopID) (board.WeatherSnapshot, error) {
	if !stop.IsSet() {
		return board.WeatherSnapshot{}, remote.ErrNoStop
	}
	ctxFetch, cancelFetch := context.WithTimeout(ctx, apiTimeout)
	defer cancelFetch()

	opts := &omgo.Options{
		Timezone:          "auto",
		TemperatureUnit:   "celsius",
		WindspeedUnit:     "mph",
		PrecipitationUnit: "mm",
	}

	start := time.Now()
	forecast, err := o.client.Forecast(ctxFetch, o.location, opts)
	took := time.Since(start)
	if err != nil {
		observability.RecordFetch(string(board.ResourceWeather), observability.OutcomeTransport, took)
		return board.WeatherSnapshot{}, fmt.Errorf("%w: failed to get forecast data: %w", remote.ErrTransport, err)
	}
	snapshot, err := snapshotFromForecast(forecast)
	if err != nil {
		observability.RecordFetch(string(board.ResourceWeather), observability.OutcomeDecode, took)
		return board.WeatherSnapshot{}, fmt.Errorf("%w: %w", remote.ErrDecode, err)
	}
	observability.RecordFetch(string(board.ResourceWeather), observability.OutcomeSuccess, took)
	o.log.Debug("open-meteo weather received", slog.String("stop", stop.String()),
		slog.Float64("temperature", snapshot.Temperature.Value()), slog.Duration("took", took))

	return snapshot, nil
}

func snapshotFromForecast(forecast *omgo.Forecast) (board.WeatherSnapshot, error) {
	if forecast == nil {
		return board.WeatherSnapshot{}, errors.New("empty forecast response")
	}
	current := forecast.CurrentWeather
	return board.WeatherSnapshot{
		Temperature: vartype.NewVariable(current.Temperature),
		WindSpeed:   vartype.NewVariable(current.WindSpeed),
		WindBearing: vartype.NewVariable(current.WindDirection),
		Forecast:    vartype.NewVariable(weather.Condition(int(current.WeatherCode))),
	}, nil
}
