package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// This file implements the forecast upstream client. Like the geocoders it
// hides behind an interface so the query service and tests stay independent
// of the concrete provider.

const forecastDays = 5

// ForecastService returns current conditions and a multi-day forecast for a
// coordinate pair.
type ForecastService interface {
	Forecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// OpenMeteoForecaster implements ForecastService against the Open-Meteo
// forecast API. Calls run through a circuit breaker: the forecaster is the
// hard dependency of every lookup, so a misbehaving upstream should fail
// fast instead of tying up request handlers until their deadline.
type OpenMeteoForecaster struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewOpenMeteoForecaster creates a new OpenMeteoForecaster.
func NewOpenMeteoForecaster(baseURL string, httpClient *http.Client) *OpenMeteoForecaster {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	return &OpenMeteoForecaster{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker:    cb,
	}
}

// responseOpenMeteoForecast mirrors the relevant parts of the Open-Meteo
// forecast payload. Optional current fields are pointers so their absence
// survives the round trip into CurrentConditions.
type responseOpenMeteoForecast struct {
	Current struct {
		Time                string   `json:"time"`
		Temperature2m       float64  `json:"temperature_2m"`
		ApparentTemperature float64  `json:"apparent_temperature"`
		WindSpeed10m        float64  `json:"wind_speed_10m"`
		RelativeHumidity2m  *int32   `json:"relative_humidity_2m"`
		Precipitation       *float64 `json:"precipitation"`
		SurfacePressure     *float64 `json:"surface_pressure"`
		WeatherCode         int32    `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time                        []string  `json:"time"`
		WeatherCode                 []int32   `json:"weather_code"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []int32   `json:"precipitation_probability_max"`
	} `json:"daily"`
}

func (s *OpenMeteoForecaster) Forecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return WeatherSnapshot{}, fmt.Errorf("failed to parse forecast URL: %w", err)
	}
	q := base.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,apparent_temperature,wind_speed_10m,relative_humidity_2m,precipitation,surface_pressure,weather_code")
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max")
	q.Set("forecast_days", strconv.Itoa(forecastDays))
	q.Set("timezone", "auto")
	base.RawQuery = q.Encode()

	result, err := s.breaker.Execute(func() (any, error) {
		var response responseOpenMeteoForecast
		if err := getJSON(ctx, s.httpClient, base.String(), &response); err != nil {
			return nil, err
		}
		return response, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return WeatherSnapshot{}, fmt.Errorf("forecast provider unavailable: %w", ErrUpstreamFailure)
		}
		return WeatherSnapshot{}, err
	}

	response := result.(responseOpenMeteoForecast)
	return WeatherSnapshot{
		Current: CurrentConditions{
			Time:                response.Current.Time,
			Temperature:         response.Current.Temperature2m,
			ApparentTemperature: response.Current.ApparentTemperature,
			WindSpeed:           response.Current.WindSpeed10m,
			Humidity:            response.Current.RelativeHumidity2m,
			Precipitation:       response.Current.Precipitation,
			Pressure:            response.Current.SurfacePressure,
			WeatherCode:         response.Current.WeatherCode,
		},
		Daily: DailyForecast{
			Time:                response.Daily.Time,
			WeatherCode:         response.Daily.WeatherCode,
			TempMax:             response.Daily.Temperature2mMax,
			TempMin:             response.Daily.Temperature2mMin,
			PrecipitationSum:    response.Daily.PrecipitationSum,
			PrecipitationChance: response.Daily.PrecipitationProbabilityMax,
		},
	}, nil
}
