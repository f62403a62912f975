package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

// mockRoundTripper is a custom RoundTripper for testing
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// failingRoundTripper simulates a connectivity failure
type failingRoundTripper struct{}

func (failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

// recordingIndicator remembers every loading transition
type recordingIndicator struct {
	states []bool
}

func (r *recordingIndicator) SetLoading(on bool) {
	r.states = append(r.states, on)
}

func (r *recordingIndicator) last() bool {
	return r.states[len(r.states)-1]
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/forecast.json")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return data
}

func newTestClient(handler http.Handler) *Client {
	client := NewClient("test-key", "test-host", "https://weather.test", 5*time.Second)
	client.HTTPClient = &http.Client{Transport: &mockRoundTripper{handler: handler}}
	return client
}

func TestFetchSuccess(t *testing.T) {
	fixture := loadFixture(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast.json" {
			t.Errorf("expected path /forecast.json, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("q"); got != "São Paulo & Co" {
			t.Errorf("expected decoded location, got %q", got)
		}
		if got := q.Get("days"); got != "3" {
			t.Errorf("expected days=3, got %s", got)
		}
		if got := q.Get("aqi"); got != "yes" {
			t.Errorf("expected aqi=yes, got %s", got)
		}
		if got := q.Get("alerts"); got != "yes" {
			t.Errorf("expected alerts=yes, got %s", got)
		}
		if got := r.Header.Get("x-rapidapi-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.Header.Get("x-rapidapi-host"); got != "test-host" {
			t.Errorf("expected host header, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(fixture)
	})

	ind := &recordingIndicator{}
	snap, err := newTestClient(handler).Fetch(context.Background(), "São Paulo & Co", ind)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Location == nil || snap.Location.Name != "New Delhi" {
		t.Fatalf("expected location New Delhi, got %+v", snap.Location)
	}
	if snap.Current == nil || snap.Current.TempC == nil || *snap.Current.TempC != 23.6 {
		t.Fatalf("expected temp 23.6, got %+v", snap.Current)
	}
	if !snap.Current.Daytime() {
		t.Error("expected daytime observation")
	}
	if snap.Current.AirQuality == nil || snap.Current.AirQuality.USEPAIndex == nil || *snap.Current.AirQuality.USEPAIndex != 3 {
		t.Errorf("expected us-epa-index 3, got %+v", snap.Current.AirQuality)
	}
	if snap.Forecast == nil || len(snap.Forecast.ForecastDay) != 3 {
		t.Fatalf("expected 3 forecast days, got %+v", snap.Forecast)
	}
	if snap.Alerts == nil || len(snap.Alerts.Alert) != 1 {
		t.Errorf("expected 1 alert, got %+v", snap.Alerts)
	}

	if len(ind.states) != 2 || !ind.states[0] || ind.last() {
		t.Errorf("expected loading on then off, got %v", ind.states)
	}
}

func TestFetchNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	})

	ind := &recordingIndicator{}
	_, err := newTestClient(handler).Fetch(context.Background(), "Atlantis", ind)
	if err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
	if err.Error() != "weather API error: HTTP 404" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if ind.last() {
		t.Error("expected loading flag off after failure")
	}
}

func TestFetchNetworkError(t *testing.T) {
	client := NewClient("k", "", "", time.Second)
	client.HTTPClient = &http.Client{Transport: failingRoundTripper{}}

	ind := &recordingIndicator{}
	_, err := client.Fetch(context.Background(), "Delhi", ind)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T (%v)", err, err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("expected no status for transport failure, got %d", fe.StatusCode)
	}
	if ind.last() {
		t.Error("expected loading flag off after network failure")
	}
}

func TestFetchMalformedBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	})

	_, err := newTestClient(handler).Fetch(context.Background(), "Delhi", nil)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
}

func TestFetchPartialResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location":{"name":"Oslo"}}`))
	})

	snap, err := newTestClient(handler).Fetch(context.Background(), "Oslo", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current != nil || snap.Forecast != nil || snap.Alerts != nil {
		t.Errorf("expected only location to be set, got %+v", snap)
	}
}

func TestFetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	client := NewClient("k", "h", srv.URL, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ind := &recordingIndicator{}
	if _, err := client.Fetch(ctx, "Delhi", ind); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if ind.last() {
		t.Error("expected loading flag off after cancellation")
	}
}
