package main

import (
	"context"
	"time"
)

// This file implements the cache refresher: a background loop that
// periodically re-fetches the weather for every favorite city and rewrites
// the corresponding cache entries, so lookups for favorites stay warm
// between user visits.

type Refresher struct {
	cfg         *apiConfig
	tick        <-chan time.Time
	stop        chan struct{}
	ticker      *time.Ticker
	refreshJobs func()
}

func NewRefresher(cfg *apiConfig, interval time.Duration) *Refresher {
	ticker := time.NewTicker(interval)
	r := &Refresher{
		cfg:    cfg,
		tick:   ticker.C,
		stop:   make(chan struct{}),
		ticker: ticker,
	}
	r.refreshJobs = r.runRefreshJobs
	return r
}

func (r *Refresher) Start() {
	go func() {
		for {
			select {
			case <-r.tick:
				r.cfg.logger.Debug("refresher: refreshing favorites")
				r.refreshJobs()
			case <-r.stop:
				r.ticker.Stop()
				return
			}
		}
	}()
}

func (r *Refresher) Stop() {
	close(r.stop)
}

// runRefreshJobs walks the favorites list and refreshes each entry. A
// failure for one city never blocks the rest.
func (r *Refresher) runRefreshJobs() {
	ctx := context.Background()
	cfg := r.cfg

	favorites, err := cfg.store.ListFavorites(ctx)
	if err != nil {
		cfg.logger.Warn("refresher: could not list favorites", "error", err)
		return
	}

	for _, fav := range favorites {
		if err := cfg.refreshFavorite(ctx, fav); err != nil {
			cfg.logger.Warn("refresher: could not refresh favorite", "city", fav.City, "error", err)
		}
	}
}

// refreshFavorite fetches a fresh report for one favorite, bypassing the
// cache read so stale entries get overwritten. Favorites that stored their
// coordinates skip the geocoding chain entirely.
func (cfg *apiConfig) refreshFavorite(ctx context.Context, fav FavoriteEntry) error {
	place := ResolvedPlace{DisplayName: fav.City}
	queryKey := normalizeSearchKey(fav.City)

	if fav.Lat != nil && fav.Lon != nil {
		place.Latitude = *fav.Lat
		place.Longitude = *fav.Lon
	} else {
		resolved, err := cfg.geocodeWithFallback(ctx, fav.City)
		if err != nil {
			return err
		}
		place = resolved
	}

	snapshot, err := cfg.fetchForecast(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return err
	}

	report := WeatherReport{
		Place:   place.DisplayName,
		Lat:     place.Latitude,
		Lon:     place.Longitude,
		Current: snapshot.Current,
		Daily:   snapshot.Daily,
	}
	cfg.storeReport(ctx, report, queryKey)
	return nil
}
