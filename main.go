package main

import (
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config()
	cfg.logger.Debug("configuration loaded")

	refresher := NewRefresher(cfg, cfg.refreshInterval)
	cfg.logger.Info("starting cache refresher", "interval", cfg.refreshInterval.String())
	refresher.Start()

	mux := http.NewServeMux()

	mux.HandleFunc("/weather", cfg.handlerWeatherByName)
	mux.HandleFunc("/weather/coords", cfg.handlerWeatherByCoords)
	mux.HandleFunc("/favorites", cfg.handlerFavorites)
	mux.HandleFunc("/favorites/toggle", cfg.handlerFavoritesToggle)
	mux.HandleFunc("/health", cfg.handlerHealth)
	mux.Handle("/metrics", promhttp.Handler())

	handler := corsMiddleware(metricsMiddleware(mux))

	server := &http.Server{
		Addr:    ":" + cfg.port,
		Handler: handler,
	}

	cfg.logger.Info("starting server", "port", cfg.port)
	err := server.ListenAndServe()
	if err != nil {
		cfg.logger.Error("server startup failed", "error", err)
		os.Exit(1)
	}
}
