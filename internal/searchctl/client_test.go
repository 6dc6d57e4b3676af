package searchctl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPQueryClient_LookupByName(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("request path = %q, want /weather", r.URL.Path)
		}
		if got := r.URL.Query().Get("city"); got != "Seúl" {
			t.Errorf("city query = %q, want Seúl", got)
		}
		_, _ = w.Write([]byte(`{
			"place": "Seoul, South Korea",
			"lat": 37.56,
			"lon": 126.99,
			"current": {"temperature_2m": 21.5, "weather_code": 2},
			"daily": {"time": ["2024-06-01"]}
		}`))
	}))
	defer mockServer.Close()

	client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())
	report, err := client.Lookup(context.Background(), ByName("Seúl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Place != "Seoul, South Korea" {
		t.Errorf("report place = %q, want %q", report.Place, "Seoul, South Korea")
	}
	if report.Lat != 37.56 || report.Lon != 126.99 {
		t.Errorf("report coordinates = (%v, %v), want (37.56, 126.99)", report.Lat, report.Lon)
	}
	if len(report.Current) == 0 || len(report.Daily) == 0 {
		t.Error("expected the opaque weather blocks to be carried through")
	}
}

func TestHTTPQueryClient_LookupByCoords(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather/coords" {
			t.Errorf("request path = %q, want /weather/coords", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "-32.9468" {
			t.Errorf("lat query = %q, want -32.9468", got)
		}
		if got := r.URL.Query().Get("lon"); got != "-60.6393" {
			t.Errorf("lon query = %q, want -60.6393", got)
		}
		_, _ = w.Write([]byte(`{"place":"Rosario, Santa Fe, Argentina","lat":-32.9468,"lon":-60.6393}`))
	}))
	defer mockServer.Close()

	client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())
	report, err := client.Lookup(context.Background(), ByCoords(-32.9468, -60.6393))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Place != "Rosario, Santa Fe, Argentina" {
		t.Errorf("report place = %q, want the resolved name", report.Place)
	}
}

func TestHTTPQueryClient_StatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{
			name:       "Not Found",
			statusCode: http.StatusNotFound,
			body:       `{"error":"Ciudad no encontrada"}`,
			wantErr:    ErrNotFound,
		},
		{
			name:       "Bad Request",
			statusCode: http.StatusBadRequest,
			body:       `{"error":"Falta city"}`,
			wantErr:    ErrInvalidInput,
		},
		{
			name:       "Server Error",
			statusCode: http.StatusInternalServerError,
			body:       `{"error":"Error consultando el clima"}`,
			wantErr:    ErrUpstream,
		},
		{
			name:       "Unexpected Status",
			statusCode: http.StatusBadGateway,
			body:       "",
			wantErr:    ErrUpstream,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer mockServer.Close()

			client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())
			_, err := client.Lookup(context.Background(), ByName("Atlantis"))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestHTTPQueryClient_MalformedBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"place":`))
	}))
	defer mockServer.Close()

	client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())
	_, err := client.Lookup(context.Background(), ByName("Rosario"))
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream for a malformed body", err)
	}
}

func TestHTTPQueryClient_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer mockServer.Close()
	defer close(blocked)

	client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Lookup(ctx, ByName("Rosario"))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestHTTPQueryClient_CancellationPassesThrough(t *testing.T) {
	started := make(chan struct{})
	blocked := make(chan struct{})
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-blocked
	}))
	defer mockServer.Close()
	defer close(blocked)

	client := NewHTTPQueryClient(mockServer.URL, mockServer.Client())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Lookup(ctx, ByName("Rosario"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled to pass through untouched", err)
	}
}
