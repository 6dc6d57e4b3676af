package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	store            favoritesStore
	cache            Cache
	geocoder         GeocodingService
	fallbackGeocoder GeocodingService
	forecaster       ForecastService
	httpClient       *http.Client
	upstreamTimeout  time.Duration
	refreshInterval  time.Duration
	port             string
	devMode          bool
	logger           *slog.Logger
}

// getRequiredEnv retrieves an environment variable by key, and fatals if it's not set.
func getRequiredEnv(key string, logger *slog.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		logger.Error("environment variable must be set", "key", key)
		os.Exit(1)
	}
	return val
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func config() *apiConfig {
	devModeStr := os.Getenv("DEV_MODE")
	devMode, err := strconv.ParseBool(devModeStr)
	if err != nil {
		devMode = false
	}

	var logger *slog.Logger
	if devMode {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	dbURL := getRequiredEnv("DB_URL", logger)
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Error("couldn't prepare connection to database", "error", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		logger.Error("couldn't connect to database", "error", err)
		os.Exit(1)
	}
	store := newPgStore(db)
	if err := store.ensureSchema(context.Background()); err != nil {
		logger.Error("could not prepare database schema", "error", err)
		os.Exit(1)
	}

	redisURL := getRequiredEnv("REDIS_URL", logger)
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("could not parse Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opt)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Error("could not connect to Redis", "error", err)
		os.Exit(1)
	}
	cache := NewRedisCache(redisClient)

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &metricsTransport{wrapped: http.DefaultTransport},
	}

	geocodeURL := getEnv("GEOCODE_URL", "https://geocoding-api.open-meteo.com/v1/search", logger)
	searchURL := getEnv("GEOCODE_FALLBACK_URL", "https://nominatim.openstreetmap.org/search", logger)
	reverseURL := getEnv("REVERSE_GEOCODE_URL", "https://nominatim.openstreetmap.org/reverse", logger)
	forecastURL := getEnv("FORECAST_URL", "https://api.open-meteo.com/v1/forecast", logger)

	upstreamTimeoutSec := getEnvAsInt("UPSTREAM_TIMEOUT_SEC", 15, logger)
	refreshIntervalMin := getEnvAsInt("REFRESH_INTERVAL_MIN", 30, logger)

	cfg := apiConfig{
		store:            store,
		cache:            cache,
		geocoder:         NewOpenMeteoGeocoder(geocodeURL, httpClient),
		fallbackGeocoder: NewNominatimGeocoder(searchURL, reverseURL, httpClient),
		forecaster:       NewOpenMeteoForecaster(forecastURL, httpClient),
		httpClient:       httpClient,
		upstreamTimeout:  time.Duration(upstreamTimeoutSec) * time.Second,
		refreshInterval:  time.Duration(refreshIntervalMin) * time.Minute,
		port:             getEnv("PORT", "8080", logger),
		devMode:          devMode,
		logger:           logger,
	}

	return &cfg
}
