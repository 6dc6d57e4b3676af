package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// This file provides mock implementations of the application's interfaces
// and a pre-wired apiConfig for tests. The mocks use function fields so each
// test configures only the behavior it cares about.

// mockGeocodingService is a mock implementation of the GeocodingService interface.
type mockGeocodingService struct {
	GeocodeFunc        func(ctx context.Context, name string) (ResolvedPlace, error)
	ReverseGeocodeFunc func(ctx context.Context, lat, lon float64) (ResolvedPlace, error)
}

func (m *mockGeocodingService) Geocode(ctx context.Context, name string) (ResolvedPlace, error) {
	if m.GeocodeFunc == nil {
		return ResolvedPlace{}, ErrNoResultsFound
	}
	return m.GeocodeFunc(ctx, name)
}

func (m *mockGeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) (ResolvedPlace, error) {
	if m.ReverseGeocodeFunc == nil {
		return ResolvedPlace{}, ErrNoResultsFound
	}
	return m.ReverseGeocodeFunc(ctx, lat, lon)
}

// mockForecastService is a mock implementation of the ForecastService interface.
type mockForecastService struct {
	ForecastFunc func(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

func (m *mockForecastService) Forecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	if m.ForecastFunc == nil {
		return WeatherSnapshot{}, nil
	}
	return m.ForecastFunc(ctx, lat, lon)
}

// mockCache is a mock implementation of the Cache interface. With no
// functions set it behaves as an always-empty cache.
type mockCache struct {
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	GetFunc   func(ctx context.Context, key string) (string, error)
	FlushFunc func(ctx context.Context) error
}

func (m *mockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}

func (m *mockCache) Flush(ctx context.Context) error {
	if m.FlushFunc == nil {
		return nil
	}
	return m.FlushFunc(ctx)
}

// mockFavoritesStore is a mock implementation of the favoritesStore interface.
type mockFavoritesStore struct {
	ListFavoritesFunc  func(ctx context.Context) ([]FavoriteEntry, error)
	ToggleFavoriteFunc func(ctx context.Context, city string, lat, lon *float64) (ToggleResult, error)
	RecordSearchFunc   func(ctx context.Context, query string) error
}

func (m *mockFavoritesStore) ListFavorites(ctx context.Context) ([]FavoriteEntry, error) {
	if m.ListFavoritesFunc == nil {
		return []FavoriteEntry{}, nil
	}
	return m.ListFavoritesFunc(ctx)
}

func (m *mockFavoritesStore) ToggleFavorite(ctx context.Context, city string, lat, lon *float64) (ToggleResult, error) {
	if m.ToggleFavoriteFunc == nil {
		return ToggleResult{}, nil
	}
	return m.ToggleFavoriteFunc(ctx, city, lat, lon)
}

func (m *mockFavoritesStore) RecordSearch(ctx context.Context, query string) error {
	if m.RecordSearchFunc == nil {
		return nil
	}
	return m.RecordSearchFunc(ctx, query)
}

// newTestConfig builds an apiConfig with quiet logging, mock collaborators
// and short timeouts. Tests overwrite the fields they need.
func newTestConfig() *apiConfig {
	return &apiConfig{
		store:            &mockFavoritesStore{},
		cache:            &mockCache{},
		geocoder:         &mockGeocodingService{},
		fallbackGeocoder: &mockGeocodingService{},
		forecaster:       &mockForecastService{},
		upstreamTimeout:  5 * time.Second,
		refreshInterval:  time.Minute,
		port:             "8080",
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
