// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package weather

import (
	"context"
	"strings"

	"github.com/wneessen/flapboard/internal/board"
)

// Provider is implemented by each weather backend.
type Provider interface {
	Name() string
	GetWeather(ctx context.Context, stop board.StopID) (board.WeatherSnapshot, error)
}

// UnknownCondition is the forecast text for weather codes without a description.
const UnknownCondition = "Unknown"

// WMOWeatherCodes maps WMO weather code integers to their descriptions
var WMOWeatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

var precipitationWords = []string{"rain", "drizzle", "shower", "snow", "sleet", "hail", "thunder"}

// Condition returns the forecast text for a WMO weather code.
func Condition(code int) string {
	if condition, ok := WMOWeatherCodes[code]; ok {
		return condition
	}
	return UnknownCondition
}

// IsPrecipitation reports whether the forecast text describes falling water of any kind.
func IsPrecipitation(forecast string) bool {
	forecast = strings.ToLower(forecast)
	for _, word := range precipitationWords {
		if strings.Contains(forecast, word) {
			return true
		}
	}
	return false
}
