package searchctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// This file contains the network layer of the search controller: the
// QueryClient interface and its HTTP implementation against the weather
// query service. The controller owns cancellation; the client only observes
// the context it is handed.

// Snapshot is the weather payload handed to the view. Current and Daily are
// opaque pass-through blocks: the controller never inspects them, the view
// picks out the fields it needs.
type Snapshot struct {
	Current json.RawMessage `json:"current"`
	Daily   json.RawMessage `json:"daily"`
}

// Report is the decoded answer of the weather query service for one lookup.
type Report struct {
	Place   string          `json:"place"`
	Lat     float64         `json:"lat"`
	Lon     float64         `json:"lon"`
	Current json.RawMessage `json:"current"`
	Daily   json.RawMessage `json:"daily"`
}

func (r Report) snapshot() Snapshot {
	return Snapshot{Current: r.Current, Daily: r.Daily}
}

// QueryClient resolves a place query into a weather report.
type QueryClient interface {
	Lookup(ctx context.Context, q PlaceQuery) (Report, error)
}

// HTTPQueryClient is the QueryClient used in production: a thin wrapper
// around the /weather and /weather/coords endpoints.
type HTTPQueryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPQueryClient creates an HTTPQueryClient for a server base URL like
// "http://localhost:8080".
func NewHTTPQueryClient(baseURL string, httpClient *http.Client) *HTTPQueryClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPQueryClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPQueryClient) Lookup(ctx context.Context, q PlaceQuery) (Report, error) {
	endpoint := c.lookupURL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// Preserve cancellation so the controller can swallow it.
			return Report{}, context.Canceled
		case errors.Is(err, context.DeadlineExceeded):
			return Report{}, fmt.Errorf("lookup request: %w", ErrTimeout)
		default:
			return Report{}, fmt.Errorf("lookup request failed (%v): %w", err, ErrUpstream)
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Report{}, fmt.Errorf("%s: %w", serverError(resp), ErrNotFound)
	case http.StatusBadRequest:
		return Report{}, fmt.Errorf("%s: %w", serverError(resp), ErrInvalidInput)
	default:
		return Report{}, fmt.Errorf("server returned %s: %w", resp.Status, ErrUpstream)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("failed to decode report (%v): %w", err, ErrUpstream)
	}
	return report, nil
}

func (c *HTTPQueryClient) lookupURL(q PlaceQuery) string {
	if q.Coords {
		v := url.Values{}
		v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
		return c.baseURL + "/weather/coords?" + v.Encode()
	}
	v := url.Values{}
	v.Set("city", q.City)
	return c.baseURL + "/weather?" + v.Encode()
}

// serverError extracts the {"error": "..."} body of a failed response,
// falling back to the HTTP status line.
func serverError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return resp.Status
}
