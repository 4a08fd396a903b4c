// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/clock"
	"github.com/wneessen/flapboard/internal/config"
	"github.com/wneessen/flapboard/internal/flap"
	"github.com/wneessen/flapboard/internal/http"
	"github.com/wneessen/flapboard/internal/i18n"
	"github.com/wneessen/flapboard/internal/job"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/netstatus"
	"github.com/wneessen/flapboard/internal/observability"
	"github.com/wneessen/flapboard/internal/presenter"
	"github.com/wneessen/flapboard/internal/remote"
	"github.com/wneessen/flapboard/internal/render"
	"github.com/wneessen/flapboard/internal/scheduler"
	"github.com/wneessen/flapboard/internal/server"
	"github.com/wneessen/flapboard/internal/weather"
	openmeteo "github.com/wneessen/flapboard/internal/weather/provider/open-meteo"
)

// Task names.
const (
	TaskBus     = "bus_refresh"
	TaskWeather = "weather_refresh"
	TaskClock   = "clock_tick"
)

// Option customizes a Service.
type Option func(*options)

type options struct {
	clock   clockwork.Clock
	http    *http.Client
	sensor  netstatus.Sensor
	output  io.Writer
	signals signalSource
}

// WithClock sets the clock that drives the scheduler and the clock row.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithHTTPClient sets the HTTP client used for the remote API and the probe sensor.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.http = client }
}

// WithSensor replaces the configured connectivity sensor.
func WithSensor(sensor netstatus.Sensor) Option {
	return func(o *options) { o.sensor = sensor }
}

// WithOutput sets the writer the JSON frames go to. It defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	localizer *spreak.Localizer
	session   string

	clock     clockwork.Clock
	clockSrc  *clock.Source
	store     *board.Store
	remote    *remote.Client
	weather   weather.Provider
	sensor    netstatus.Sensor
	resume    *netstatus.ResumeWatcher
	scheduler *scheduler.Scheduler
	presenter *presenter.Presenter
	latest    *render.Latest
	surface   render.Surface
	server    *server.Server
	signals   signalSource

	renderLock sync.Mutex
}

// New wires the board for conf. Without a stop no network component is created.
func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer, opts ...Option) (*Service, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if t == nil {
		return nil, fmt.Errorf("localizer is required")
	}
	o := &options{output: os.Stdout, signals: stdLibSignalSource{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}

	session := uuid.NewString()
	log = log.With(slog.String("session", session))
	stop := board.StopID(conf.Stop)

	clockSrc, err := clock.New(o.clock, conf.Clock.Timezone, conf.Clock.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create clock source: %w", err)
	}
	overflow, err := flap.ParseOverflowPolicy(conf.Display.Overflow)
	if err != nil {
		return nil, err
	}
	scale, err := render.ParseScale(conf.Display.Scale)
	if err != nil {
		return nil, err
	}
	pres, err := presenter.New(presenter.Options{
		Width:           conf.Display.Width,
		ShortGap:        conf.Display.ShortGap,
		WeatherWidth:    conf.Display.WeatherWidth,
		WeatherShortGap: conf.Display.WeatherShortGap,
		ClockWidth:      clockSrc.Width(),
		Overflow:        overflow,
		Scale:           scale,
		WindThreshold:   conf.Weather.WindThreshold,
		HasLocation:     conf.HasLocation(),
		Latitude:        conf.Location.Latitude,
		Longitude:       conf.Location.Longitude,
	}, t, flap.NewNumbers(i18n.Tag(conf.Locale)), o.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	s := &Service{
		config:    conf,
		logger:    log,
		localizer: t,
		session:   session,
		clock:     o.clock,
		clockSrc:  clockSrc,
		store:     board.NewStore(stop),
		presenter: pres,
		latest:    &render.Latest{},
		signals:   o.signals,
	}
	s.surface = render.Multi{render.NewJSONWriter(o.output), s.latest}

	if stop.IsSet() {
		if o.http == nil {
			o.http = http.New(log)
		}
		if err = s.setupRemote(o); err != nil {
			return nil, err
		}
	}

	s.scheduler, err = scheduler.New(o.clock, s.sensor, log)
	if err != nil {
		return nil, err
	}

	if conf.Server.Listen != "" {
		var online func() bool
		if s.sensor != nil {
			online = s.sensor.Online
		}
		humanizer := humanize.MustNew(humanize.WithLocale(de.New())).CreateHumanizer(i18n.Tag(conf.Locale))
		s.server, err = server.New(s.latest, s.store, online, session, humanizer, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create http server: %w", err)
		}
	}

	return s, nil
}

func (s *Service) setupRemote(o *options) error {
	var err error
	s.remote, err = remote.New(o.http, s.logger, s.config.API.BaseURL, s.config.API.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create remote client: %w", err)
	}

	s.weather, err = s.selectWeatherProvider()
	if err != nil {
		return err
	}

	s.sensor = o.sensor
	if s.sensor == nil {
		if s.sensor, err = s.selectSensor(o.http); err != nil {
			return err
		}
	}

	if s.config.Network.WatchResume {
		s.resume, err = netstatus.NewResumeWatcher(s.clock, s.logger, s.onResume)
		if err != nil {
			return fmt.Errorf("failed to create resume watcher: %w", err)
		}
	}
	return nil
}

func (s *Service) selectWeatherProvider() (weather.Provider, error) {
	switch s.config.Weather.Provider {
	case config.ProviderOpenMeteo:
		provider, err := openmeteo.New(s.logger, s.config.Location.Latitude, s.config.Location.Longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to create Open-Meteo provider: %w", err)
		}
		return provider, nil
	case config.ProviderBoardAPI, "":
		return s.remote, nil
	default:
		return nil, fmt.Errorf("unsupported weather provider: %s", s.config.Weather.Provider)
	}
}

func (s *Service) selectSensor(client *http.Client) (netstatus.Sensor, error) {
	network := s.config.Network
	switch network.Sensor {
	case config.SensorAlways, "":
		return netstatus.NewAlways(), nil
	case config.SensorProbe:
		return netstatus.NewProbe(client, s.logger, network.ProbeURL, network.ProbeInterval, s.config.API.Timeout)
	case config.SensorNetworkManager:
		return netstatus.NewNetworkManager(s.logger)
	case config.SensorWifi:
		return netstatus.NewWifi(s.logger, network.WifiInterface, 0)
	default:
		return nil, fmt.Errorf("unsupported network sensor: %s", network.Sensor)
	}
}

// Run starts the board and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.scheduleTasks(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var errLock sync.Mutex
	var errs []error
	goRun := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				s.logger.Error("background component failed", slog.String("component", name), logger.Err(err))
				errLock.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				errLock.Unlock()
			}
		}()
	}

	if s.resume != nil {
		goRun("resume", s.resume.Run)
	}
	if s.server != nil {
		goRun("server", func(ctx context.Context) error {
			return s.server.ListenAndServe(ctx, s.config.Server.Listen)
		})
	}

	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.HandleRefreshSignal(ctx, sigChan)
	}()

	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}
	// Sensors start after the scheduler subscribed to them.
	if runner, ok := s.sensor.(netstatus.Runner); ok {
		goRun("sensor", runner.Run)
	}
	s.logger.Debug("board started", slog.String("stop", s.store.Stop().String()),
		slog.Bool("data_tasks", s.store.Stop().IsSet()))

	<-ctx.Done()
	s.signals.Stop(sigChan)
	err := s.scheduler.Shutdown()
	wg.Wait()
	errs = append(errs, err)
	return errors.Join(errs...)
}

func (s *Service) scheduleTasks(ctx context.Context) error {
	if s.store.Stop().IsSet() {
		if err := s.scheduler.Add(ctx, job.New(TaskBus, s.fetchTimetable, s.sensor), s.config.Intervals.Bus); err != nil {
			return err
		}
		if err := s.scheduler.Add(ctx, job.New(TaskWeather, s.fetchWeather, s.sensor),
			s.config.Intervals.Weather); err != nil {
			return err
		}
	}
	return s.scheduler.Add(ctx, job.New(TaskClock, s.tickClock, nil), s.config.Intervals.Clock)
}

// fetchTimetable fetches the timetable and applies it unless a newer result was applied first.
// Failures keep the previous timetable.
func (s *Service) fetchTimetable(ctx context.Context) {
	seq := s.store.NextSequence(board.ResourceTimetable)
	table, err := s.remote.FetchTimetable(ctx, s.store.Stop())
	if err != nil {
		s.logFetchError(ctx, board.ResourceTimetable, err)
		return
	}
	if !s.store.ApplyTimetable(seq, table, s.clock.Now()) {
		observability.RecordFetch(string(board.ResourceTimetable), observability.OutcomeStale, 0)
		s.logger.Debug("discarding stale timetable", slog.Uint64("sequence", seq))
		return
	}
	s.logger.Debug("timetable updated", slog.Int("buses", len(table.Buses)))
	s.render(ctx)
}

// fetchWeather fetches the weather and applies it unless a newer result was applied first.
// Failures keep the previous weather.
func (s *Service) fetchWeather(ctx context.Context) {
	seq := s.store.NextSequence(board.ResourceWeather)
	snapshot, err := s.weather.GetWeather(ctx, s.store.Stop())
	if err != nil {
		s.logFetchError(ctx, board.ResourceWeather, err)
		return
	}
	if !s.store.ApplyWeather(seq, snapshot, s.clock.Now()) {
		observability.RecordFetch(string(board.ResourceWeather), observability.OutcomeStale, 0)
		s.logger.Debug("discarding stale weather", slog.Uint64("sequence", seq))
		return
	}
	s.logger.Debug("weather updated", slog.String("provider", s.weather.Name()))
	s.render(ctx)
}

func (s *Service) tickClock(ctx context.Context) {
	s.store.SetClock(s.clockSrc.Now())
	s.render(ctx)
}

func (s *Service) render(ctx context.Context) {
	s.renderLock.Lock()
	defer s.renderLock.Unlock()
	frame := s.presenter.BuildFrame(s.store.Snapshot())
	if err := s.surface.Render(ctx, frame); err != nil {
		s.logger.Error("failed to render frame", logger.Err(err))
	}
}

func (s *Service) logFetchError(ctx context.Context, res board.Resource, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Error("failed to fetch board data, keeping previous state", slog.String("resource", string(res)),
		logger.Err(err))
}

func (s *Service) onResume(ctx context.Context) {
	s.scheduler.TriggerGated(ctx)
}
