// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package remote fetches the timetable and weather resources of a stop from the board API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/http"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/observability"
)

const name = "board-api"

var (
	// ErrTransport is returned when the API could not be reached or answered with a non-2xx code.
	ErrTransport = errors.New("transport failure")
	// ErrDecode is returned when the API response does not have the expected JSON shape.
	ErrDecode = errors.New("decode failure")
	// ErrNoStop is returned when a fetch is attempted without a stop.
	ErrNoStop = errors.New("no stop provided")
)

// Client fetches single resources from the board API.
type Client struct {
	http    *http.Client
	log     *logger.Logger
	baseURL string
	timeout time.Duration
}

type timetableResponse struct {
	Buses *[]board.BusArrival `json:"buses"`
}

// New returns a Client for the API at baseURL.
func New(httpClient *http.Client, log *logger.Logger, baseURL string, timeout time.Duration) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = http.DefaultTimeout
	}

	return &Client{
		http:    httpClient,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}, nil
}

func (c *Client) Name() string {
	return name
}

// FetchTimetable fetches the arrivals of the stop. The order of the response is kept.
func (c *Client) FetchTimetable(ctx context.Context, stop board.StopID) (board.Timetable, error) {
	var res *timetableResponse
	validate := func() error {
		if res == nil || res.Buses == nil {
			return errors.New("response has no buses")
		}
		for i, bus := range *res.Buses {
			if bus.Number == "" || bus.Due == "" {
				return fmt.Errorf("bus %d has no number or due time", i)
			}
		}
		return nil
	}
	if err := c.fetch(ctx, board.ResourceTimetable, "times", stop, &res, validate); err != nil {
		return board.Timetable{}, err
	}
	return board.Timetable{Buses: *res.Buses}, nil
}

// FetchWeather fetches the weather snapshot of the stop. Missing fields stay unset.
func (c *Client) FetchWeather(ctx context.Context, stop board.StopID) (board.WeatherSnapshot, error) {
	var res *board.WeatherSnapshot
	validate := func() error {
		if res == nil {
			return errors.New("empty weather response")
		}
		return nil
	}
	if err := c.fetch(ctx, board.ResourceWeather, "weather", stop, &res, validate); err != nil {
		return board.WeatherSnapshot{}, err
	}
	return *res, nil
}

// GetWeather satisfies the weather provider interface.
func (c *Client) GetWeather(ctx context.Context, stop board.StopID) (board.WeatherSnapshot, error) {
	return c.FetchWeather(ctx, stop)
}

// fetch performs the request, decodes the response into target and checks its shape with validate.
func (c *Client) fetch(ctx context.Context, res board.Resource, path string, stop board.StopID, target any,
	validate func() error,
) error {
	if !stop.IsSet() {
		return ErrNoStop
	}
	endpoint := c.baseURL + "/" + path + "/" + url.PathEscape(stop.String())

	start := time.Now()
	code, err := c.http.GetWithTimeout(ctx, endpoint, target, nil, map[string]string{"Accept": "application/json"},
		c.timeout)
	took := time.Since(start)
	c.log.Debug("remote fetch finished", slog.String("resource", string(res)), slog.String("url", endpoint),
		slog.Int("status", code), slog.Duration("took", took))

	switch {
	case errors.Is(err, http.ErrDecodeJSON):
		observability.RecordFetch(string(res), observability.OutcomeDecode, took)
		return fmt.Errorf("%w: %w", ErrDecode, err)
	case err != nil:
		observability.RecordFetch(string(res), observability.OutcomeTransport, took)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	case code < 200 || code > 299:
		observability.RecordFetch(string(res), observability.OutcomeTransport, took)
		return fmt.Errorf("%w: API returned status code %d", ErrTransport, code)
	}
	if err = validate(); err != nil {
		observability.RecordFetch(string(res), observability.OutcomeDecode, took)
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	observability.RecordFetch(string(res), observability.OutcomeSuccess, took)
	return nil
}
