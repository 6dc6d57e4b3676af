package main

import (
	"time"

	"github.com/google/uuid"
)

// ResolvedPlace is the output of a geocoding lookup: coordinates plus a
// human-readable display name. DisplayName is never empty; when no provider
// can name the place it falls back to the coordinates formatted to two
// decimal places.
type ResolvedPlace struct {
	DisplayName string  `json:"place"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// CurrentConditions holds the current-weather block of a snapshot.
// Humidity, Precipitation and Pressure are optional: not every provider
// response carries them, so absence is a nil pointer rather than a zero value.
type CurrentConditions struct {
	Time                string   `json:"time"`
	Temperature         float64  `json:"temperature_2m"`
	ApparentTemperature float64  `json:"apparent_temperature"`
	WindSpeed           float64  `json:"wind_speed_10m"`
	Humidity            *int32   `json:"relative_humidity_2m,omitempty"`
	Precipitation       *float64 `json:"precipitation,omitempty"`
	Pressure            *float64 `json:"surface_pressure,omitempty"`
	WeatherCode         int32    `json:"weather_code"`
}

// DailyForecast holds the multi-day block of a snapshot as parallel arrays,
// one entry per day. Time, WeatherCode, TempMax and TempMin always have the
// same length; PrecipitationSum and PrecipitationChance may be empty when the
// provider omits them, but are never a different non-zero length.
type DailyForecast struct {
	Time                []string  `json:"time"`
	WeatherCode         []int32   `json:"weather_code"`
	TempMax             []float64 `json:"temperature_2m_max"`
	TempMin             []float64 `json:"temperature_2m_min"`
	PrecipitationSum    []float64 `json:"precipitation_sum,omitempty"`
	PrecipitationChance []int32   `json:"precipitation_probability_max,omitempty"`
}

// WeatherSnapshot is the opaque payload handed to the view layer: current
// conditions plus the daily forecast for the same coordinates.
type WeatherSnapshot struct {
	Current CurrentConditions `json:"current"`
	Daily   DailyForecast     `json:"daily"`
}

// WeatherReport is the full answer for one place query and the JSON body of
// the /weather endpoints.
type WeatherReport struct {
	Place   string            `json:"place"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Current CurrentConditions `json:"current"`
	Daily   DailyForecast     `json:"daily"`
}

// Snapshot extracts the weather payload from a report.
func (r WeatherReport) Snapshot() WeatherSnapshot {
	return WeatherSnapshot{Current: r.Current, Daily: r.Daily}
}

// FavoriteEntry is one row of the favorites toggle-set.
type FavoriteEntry struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Lat       *float64  `json:"lat"`
	Lon       *float64  `json:"lon"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleResult reports the outcome of a favorites toggle. Exactly one of
// Added/Removed is true; Row is set only when an entry was added.
type ToggleResult struct {
	Added   bool           `json:"added,omitempty"`
	Removed bool           `json:"removed,omitempty"`
	Row     *FavoriteEntry `json:"row,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}
