package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// This file provides the application's geocoding capabilities, which convert
// between free-text place names and geographical coordinates. Providers are
// abstracted behind the GeocodingService interface so the query service can
// chain a primary and a fallback provider without knowing which is which,
// and so tests can substitute mocks.

// GeocodingService defines a generic interface for geocoding operations.
type GeocodingService interface {
	Geocode(ctx context.Context, name string) (ResolvedPlace, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (ResolvedPlace, error)
}

// OpenMeteoGeocoder is the primary GeocodingService, backed by the
// Open-Meteo geocoding API. The API has no reverse endpoint, so
// ReverseGeocode always fails; reverse lookups go to the fallback provider.
type OpenMeteoGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenMeteoGeocoder creates a new OpenMeteoGeocoder.
func NewOpenMeteoGeocoder(baseURL string, httpClient *http.Client) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// responseOpenMeteoGeocode mirrors the Open-Meteo geocoding JSON payload.
type responseOpenMeteoGeocode struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (s *OpenMeteoGeocoder) Geocode(ctx context.Context, name string) (ResolvedPlace, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return ResolvedPlace{}, fmt.Errorf("failed to parse geocode URL: %w", err)
	}
	q := base.Query()
	q.Set("name", name)
	q.Set("count", "1")
	base.RawQuery = q.Encode()

	var response responseOpenMeteoGeocode
	if err := getJSON(ctx, s.httpClient, base.String(), &response); err != nil {
		return ResolvedPlace{}, err
	}

	if len(response.Results) == 0 {
		return ResolvedPlace{}, ErrNoResultsFound
	}

	r := response.Results[0]
	return ResolvedPlace{
		DisplayName: joinPlaceParts(r.Name, r.Admin1, r.Country),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}, nil
}

func (s *OpenMeteoGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (ResolvedPlace, error) {
	return ResolvedPlace{}, fmt.Errorf("reverse geocoding not supported by primary provider: %w", ErrUpstreamFailure)
}

// NominatimGeocoder is the fallback GeocodingService and the reverse
// geocoder, backed by a Nominatim-compatible endpoint.
type NominatimGeocoder struct {
	searchURL  string
	reverseURL string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new NominatimGeocoder.
func NewNominatimGeocoder(searchURL, reverseURL string, httpClient *http.Client) *NominatimGeocoder {
	return &NominatimGeocoder{
		searchURL:  searchURL,
		reverseURL: reverseURL,
		httpClient: httpClient,
	}
}

// responseNominatimPlace mirrors one entry of a Nominatim search response.
// Coordinates arrive as strings.
type responseNominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (s *NominatimGeocoder) Geocode(ctx context.Context, name string) (ResolvedPlace, error) {
	base, err := url.Parse(s.searchURL)
	if err != nil {
		return ResolvedPlace{}, fmt.Errorf("failed to parse search URL: %w", err)
	}
	q := base.Query()
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")
	base.RawQuery = q.Encode()

	var results []responseNominatimPlace
	if err := getJSON(ctx, s.httpClient, base.String(), &results); err != nil {
		return ResolvedPlace{}, err
	}
	if len(results) == 0 {
		return ResolvedPlace{}, ErrNoResultsFound
	}
	return parseNominatimPlace(results[0])
}

func (s *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (ResolvedPlace, error) {
	base, err := url.Parse(s.reverseURL)
	if err != nil {
		return ResolvedPlace{}, fmt.Errorf("failed to parse reverse URL: %w", err)
	}
	q := base.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")
	base.RawQuery = q.Encode()

	var result responseNominatimPlace
	if err := getJSON(ctx, s.httpClient, base.String(), &result); err != nil {
		return ResolvedPlace{}, err
	}
	if result.DisplayName == "" && result.Address.Country == "" {
		return ResolvedPlace{}, ErrNoResultsFound
	}
	return parseNominatimPlace(result)
}

// parseNominatimPlace converts a Nominatim entry into a ResolvedPlace,
// preferring the structured address over the raw display_name blob.
func parseNominatimPlace(p responseNominatimPlace) (ResolvedPlace, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return ResolvedPlace{}, fmt.Errorf("invalid latitude in response: %w", err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return ResolvedPlace{}, fmt.Errorf("invalid longitude in response: %w", err)
	}

	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}
	name := joinPlaceParts(city, p.Address.State, p.Address.Country)
	if name == "" {
		name = p.DisplayName
	}

	return ResolvedPlace{DisplayName: name, Latitude: lat, Longitude: lon}, nil
}

// getJSON performs a context-bound GET against an upstream provider and
// decodes the JSON body into out. Non-200 statuses map to ErrUpstreamFailure.
func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %s: %w", resp.Status, ErrUpstreamFailure)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
