package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// This file contains the HTTP handlers for the application. Each handler
// validates its input, delegates to the weather query service or the
// favorites store, and maps the error taxonomy onto status codes:
// invalid input -> 400, geocoding exhausted -> 404, everything else -> 500
// with a short generic message (details only in the logs).

// handlerWeatherByName serves GET /weather?city={text}.
func (cfg *apiConfig) handlerWeatherByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	city := r.URL.Query().Get("city")
	if normalizeSearchKey(city) == "" {
		cfg.respondWithError(w, http.StatusBadRequest, "Falta city", nil)
		return
	}
	cfg.logger.Debug("weather request", "city", city)

	if err := cfg.store.RecordSearch(ctx, city); err != nil {
		cfg.logger.Warn("could not record search", "city", city, "error", err)
	}

	report, err := cfg.resolveByName(ctx, city)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			cfg.respondWithError(w, http.StatusBadRequest, "Falta city", err)
		case errors.Is(err, ErrNoResultsFound):
			cfg.respondWithError(w, http.StatusNotFound, "Ciudad no encontrada", err)
		default:
			cfg.respondWithError(w, http.StatusInternalServerError, "Error consultando el clima", err)
		}
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, report)
}

// handlerWeatherByCoords serves GET /weather/coords?lat={float}&lon={float}.
func (cfg *apiConfig) handlerWeatherByCoords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		cfg.respondWithError(w, http.StatusBadRequest, "Faltan lat/lon", nil)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Faltan lat/lon", err)
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Faltan lat/lon", err)
		return
	}
	cfg.logger.Debug("weather request by coordinates", "lat", lat, "lon", lon)

	report, err := cfg.resolveByCoords(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			cfg.respondWithError(w, http.StatusBadRequest, "Faltan lat/lon", err)
			return
		}
		cfg.respondWithError(w, http.StatusInternalServerError, "Error consultando el clima", err)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, report)
}

// handlerFavorites serves GET /favorites, newest first.
func (cfg *apiConfig) handlerFavorites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	favorites, err := cfg.store.ListFavorites(r.Context())
	if err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Error consultando favoritos", err)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, favorites)
}

// toggleRequest is the body of POST /favorites/toggle.
type toggleRequest struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// handlerFavoritesToggle serves POST /favorites/toggle. The first toggle for
// a city adds it, the second removes it.
func (cfg *apiConfig) handlerFavoritesToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	var body toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, "Falta city", err)
		return
	}
	if body.City == "" {
		cfg.respondWithError(w, http.StatusBadRequest, "Falta city", nil)
		return
	}

	result, err := cfg.store.ToggleFavorite(r.Context(), body.City, body.Lat, body.Lon)
	if err != nil {
		cfg.respondWithError(w, http.StatusInternalServerError, "Error actualizando favoritos", err)
		return
	}
	cfg.logger.Debug("favorite toggled", "city", body.City, "added", result.Added)

	cfg.respondWithJSON(w, http.StatusOK, result)
}

// handlerHealth serves GET /health.
func (cfg *apiConfig) handlerHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	cfg.respondWithJSON(w, http.StatusOK, HealthResponse{
		OK:   true,
		Time: time.Now().UTC().Format(time.RFC3339),
	})
}
