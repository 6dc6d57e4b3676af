package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal tracks the total number of HTTP requests, partitioned by
// the request's URL path, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wheather_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// cacheHitsTotal counts lookups answered from the response cache.
var cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wheather_cache_hits_total",
	Help: "Total number of weather lookups served from the cache.",
})

// geocodeFallbacksTotal counts lookups that needed the fallback geocoder.
var geocodeFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wheather_geocode_fallbacks_total",
	Help: "Total number of geocoding lookups resolved by the fallback provider.",
})

// upstreamRequestDuration observes the latency of calls to the geocoding and
// forecast providers, partitioned by host.
var upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "wheather_upstream_request_duration_seconds",
	Help:    "Duration of requests to upstream providers in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"host"})
