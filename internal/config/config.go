// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/flapboard/internal/flap"
	"github.com/wneessen/flapboard/internal/render"
)

const configEnv = "FLAPBOARD"

// Connectivity sensor backends.
const (
	SensorAlways         = "always"
	SensorProbe          = "probe"
	SensorNetworkManager = "networkmanager"
	SensorWifi           = "wifi"
)

// Weather providers.
const (
	ProviderBoardAPI  = "board-api"
	ProviderOpenMeteo = "open-meteo"
)

// Config represents the application's configuration structure.
type Config struct {
	// Stop is the transit stop the board shows. Without it no data is fetched.
	Stop     string     `fig:"stop"`
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	API struct {
		BaseURL string        `fig:"base_url" default:"http://127.0.0.1:5000"`
		Timeout time.Duration `fig:"timeout" default:"10s"`
	} `fig:"api"`

	Weather struct {
		// Allowed values: board-api, open-meteo
		Provider string `fig:"provider" default:"board-api"`
		// Wind speed in mph from which the wind glyph is shown
		WindThreshold float64 `fig:"wind_threshold" default:"15"`
	} `fig:"weather"`

	Intervals struct {
		Bus     time.Duration `fig:"bus" default:"15s"`
		Weather time.Duration `fig:"weather" default:"30m"`
		Clock   time.Duration `fig:"clock" default:"1s"`
	} `fig:"intervals"`

	Display struct {
		Width           int `fig:"width" default:"50"`
		ShortGap        int `fig:"short_gap" default:"8"`
		WeatherWidth    int `fig:"weather_width" default:"18"`
		WeatherShortGap int `fig:"weather_short_gap" default:"4"`
		// Allowed values: truncate, reject
		Overflow string `fig:"overflow" default:"truncate"`
		// Allowed values: S, M, L, XL
		Scale string `fig:"scale" default:"XL"`
	} `fig:"display"`

	Clock struct {
		Timezone string `fig:"timezone" default:"Local"`
		Format   string `fig:"format" default:"3:04:05 PM"`
	} `fig:"clock"`

	Network struct {
		// Allowed values: always, probe, networkmanager, wifi
		Sensor        string        `fig:"sensor" default:"always"`
		ProbeURL      string        `fig:"probe_url"`
		ProbeInterval time.Duration `fig:"probe_interval" default:"10s"`
		WifiInterface string        `fig:"wifi_interface"`
		WatchResume   bool          `fig:"watch_resume"`
	} `fig:"network"`

	Location struct {
		Latitude  float64 `fig:"latitude"`
		Longitude float64 `fig:"longitude"`
	} `fig:"location"`

	Server struct {
		// Empty disables the HTTP server
		Listen string `fig:"listen"`
	} `fig:"server"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	c.Stop = strings.TrimSpace(c.Stop)

	if c.Intervals.Bus <= 0 || c.Intervals.Weather <= 0 || c.Intervals.Clock <= 0 {
		return fmt.Errorf("intervals must be positive: bus=%s, weather=%s, clock=%s", c.Intervals.Bus,
			c.Intervals.Weather, c.Intervals.Clock)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid API timeout: %s", c.API.Timeout)
	}
	if c.Display.Width < 1 || c.Display.WeatherWidth < 1 {
		return fmt.Errorf("invalid display width: %d/%d", c.Display.Width, c.Display.WeatherWidth)
	}
	if c.Display.ShortGap < 0 || c.Display.WeatherShortGap < 0 {
		return fmt.Errorf("invalid short gap: %d/%d", c.Display.ShortGap, c.Display.WeatherShortGap)
	}
	if _, err := flap.ParseOverflowPolicy(c.Display.Overflow); err != nil {
		return err
	}
	if _, err := render.ParseScale(c.Display.Scale); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Clock.Timezone); err != nil {
		return fmt.Errorf("invalid clock timezone %q: %w", c.Clock.Timezone, err)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}

	switch c.Network.Sensor {
	case SensorAlways, SensorNetworkManager, SensorWifi:
	case SensorProbe:
		if c.Network.ProbeURL == "" {
			c.Network.ProbeURL = c.API.BaseURL
		}
		if c.Network.ProbeInterval <= 0 {
			return fmt.Errorf("invalid probe interval: %s", c.Network.ProbeInterval)
		}
	default:
		return fmt.Errorf("invalid network sensor: %s", c.Network.Sensor)
	}

	switch c.Weather.Provider {
	case ProviderBoardAPI:
	case ProviderOpenMeteo:
		if !c.HasLocation() {
			return fmt.Errorf("weather provider %s requires location coordinates", ProviderOpenMeteo)
		}
	default:
		return fmt.Errorf("invalid weather provider: %s", c.Weather.Provider)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 ||
		c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("invalid location coordinates: %f/%f", c.Location.Latitude, c.Location.Longitude)
	}

	return nil
}

// HasLocation reports whether coordinates were configured.
func (c *Config) HasLocation() bool {
	return c.Location.Latitude != 0 || c.Location.Longitude != 0
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
