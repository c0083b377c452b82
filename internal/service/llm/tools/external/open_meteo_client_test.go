package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenMeteoForecast(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":21.5}}`))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(srv.URL + "/")
	body, err := client.Forecast(context.Background(), 52.52, 13.41)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if string(body) != `{"current":{"temperature_2m":21.5}}` {
		t.Errorf("unexpected body %s", body)
	}
	for _, want := range []string{"latitude=52.52", "longitude=13.41", "timezone=auto"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestOpenMeteoForecastStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad coords", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewOpenMeteoClient(srv.URL).Forecast(context.Background(), 999, 999)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}
