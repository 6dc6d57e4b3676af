package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// This file contains the weather query service: the server-side half of the
// lookup lifecycle. It turns a place query (name or coordinates) into a
// WeatherReport by chaining geocoding candidates across two providers,
// fetching the forecast for the winning coordinates, and caching the
// assembled answer under both the query key and the resolved display name.

const reportCacheTTL = 10 * time.Minute
const reportCachePrefix = "weather:"

// candidateQueries builds the ordered list of geocoding attempts for a raw
// query: the trimmed text, the portion before the first comma (if any), and
// a diacritic-stripped version of that portion (if it differs). Providers
// are fuzzy free-text matchers with patchy coverage for accented names and
// multi-part place strings; progressively simpler candidates materially
// improve the hit rate.
func candidateQueries(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	candidates := []string{trimmed}
	first := trimmed
	if idx := strings.Index(trimmed, ","); idx >= 0 {
		first = strings.TrimSpace(trimmed[:idx])
		if first != "" && first != trimmed {
			candidates = append(candidates, first)
		}
	}
	if stripped, err := stripDiacritics(first); err == nil && stripped != first && stripped != "" {
		candidates = append(candidates, stripped)
	}
	return candidates
}

// geocodeWithFallback walks the candidate list against the primary geocoder
// and, if every attempt fails, tries the fallback geocoder once with the
// first candidate. A timed-out call counts as a plain failure for chain
// purposes. When both providers are exhausted the result is ErrNoResultsFound.
func (cfg *apiConfig) geocodeWithFallback(ctx context.Context, text string) (ResolvedPlace, error) {
	candidates := candidateQueries(text)
	if len(candidates) == 0 {
		return ResolvedPlace{}, ErrInvalidInput
	}

	for _, candidate := range candidates {
		place, err := cfg.geocodeOnce(ctx, cfg.geocoder, candidate)
		if err == nil {
			return place, nil
		}
		cfg.logger.Debug("primary geocoder miss", "candidate", candidate, "error", err)
	}

	place, err := cfg.geocodeOnce(ctx, cfg.fallbackGeocoder, candidates[0])
	if err != nil {
		cfg.logger.Debug("fallback geocoder miss", "candidate", candidates[0], "error", err)
		return ResolvedPlace{}, fmt.Errorf("geocoding %q: %w", text, ErrNoResultsFound)
	}
	geocodeFallbacksTotal.Inc()
	return place, nil
}

// geocodeOnce runs a single provider attempt under the upstream timeout.
func (cfg *apiConfig) geocodeOnce(ctx context.Context, geocoder GeocodingService, candidate string) (ResolvedPlace, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()
	return geocoder.Geocode(callCtx, candidate)
}

// resolveByName answers GET /weather?city=. The normalized query is checked
// against the cache first; a miss walks the geocoding chain and then fetches
// the forecast, which is a hard dependency (no fallback past it).
func (cfg *apiConfig) resolveByName(ctx context.Context, text string) (WeatherReport, error) {
	key := normalizeSearchKey(text)
	if key == "" {
		return WeatherReport{}, fmt.Errorf("empty query: %w", ErrInvalidInput)
	}

	if report, ok := cfg.cachedReport(ctx, key); ok {
		return report, nil
	}

	place, err := cfg.geocodeWithFallback(ctx, text)
	if err != nil {
		return WeatherReport{}, err
	}

	snapshot, err := cfg.fetchForecast(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return WeatherReport{}, err
	}

	report := WeatherReport{
		Place:   place.DisplayName,
		Lat:     place.Latitude,
		Lon:     place.Longitude,
		Current: snapshot.Current,
		Daily:   snapshot.Daily,
	}
	cfg.storeReport(ctx, report, key)
	return report, nil
}

// resolveByCoords answers GET /weather/coords. Reverse geocoding is
// best-effort: on any failure the display name degrades to the formatted
// coordinates and the operation carries on. The forecast remains hard.
func (cfg *apiConfig) resolveByCoords(ctx context.Context, lat, lon float64) (WeatherReport, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return WeatherReport{}, fmt.Errorf("non-finite coordinates: %w", ErrInvalidInput)
	}

	key := coordKey(lat, lon)
	if report, ok := cfg.cachedReport(ctx, key); ok {
		return report, nil
	}

	displayName := fmt.Sprintf("%.2f, %.2f", lat, lon)
	callCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	place, err := cfg.fallbackGeocoder.ReverseGeocode(callCtx, lat, lon)
	cancel()
	if err != nil {
		cfg.logger.Debug("reverse geocoding failed, using coordinates as name", "lat", lat, "lon", lon, "error", err)
	} else if place.DisplayName != "" {
		displayName = place.DisplayName
	}

	snapshot, err := cfg.fetchForecast(ctx, lat, lon)
	if err != nil {
		return WeatherReport{}, err
	}

	report := WeatherReport{
		Place:   displayName,
		Lat:     lat,
		Lon:     lon,
		Current: snapshot.Current,
		Daily:   snapshot.Daily,
	}
	cfg.storeReport(ctx, report, key)
	return report, nil
}

// fetchForecast runs the forecaster under the upstream timeout. A timeout
// here is the operation's own failure, not a chain step.
func (cfg *apiConfig) fetchForecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()

	snapshot, err := cfg.forecaster.Forecast(callCtx, lat, lon)
	if err != nil {
		if isTimeout(err) {
			return WeatherSnapshot{}, fmt.Errorf("forecast request timed out: %w", err)
		}
		return WeatherSnapshot{}, fmt.Errorf("could not fetch forecast: %w", err)
	}
	return snapshot, nil
}

// cachedReport looks a report up by one normalized key.
func (cfg *apiConfig) cachedReport(ctx context.Context, key string) (WeatherReport, bool) {
	data, err := cfg.cache.Get(ctx, reportCachePrefix+key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cfg.logger.Warn("error getting from cache", "key", key, "error", err)
		}
		return WeatherReport{}, false
	}

	var report WeatherReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		cfg.logger.Warn("invalid cache entry", "key", key, "error", err)
		return WeatherReport{}, false
	}
	cfg.logger.Debug("cache hit", "key", key)
	cacheHitsTotal.Inc()
	return report, true
}

// storeReport writes a report under the query key and, when it differs, the
// normalized display name, so a later search by either form hits the cache.
// Cache writes are best-effort.
func (cfg *apiConfig) storeReport(ctx context.Context, report WeatherReport, queryKey string) {
	keys := []string{queryKey}
	if nameKey := normalizeSearchKey(report.Place); nameKey != "" && nameKey != queryKey {
		keys = append(keys, nameKey)
	}
	for _, key := range keys {
		if err := cfg.cache.Set(ctx, reportCachePrefix+key, report, reportCacheTTL); err != nil {
			cfg.logger.Warn("error setting to cache", "key", key, "error", err)
		}
	}
}
