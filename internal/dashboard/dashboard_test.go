package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/swelljoe/skywatch/internal/condition"
	"github.com/swelljoe/skywatch/internal/effects"
	"github.com/swelljoe/skywatch/internal/location"
	"github.com/swelljoe/skywatch/internal/view"
	"github.com/swelljoe/skywatch/internal/weather"
)

// quietFlicker never strikes, keeping socket traffic deterministic.
var quietFlicker = effects.FlickerConfig{Interval: time.Hour, Probability: 0.3, Rand: func() float64 { return 1 }}

type fakeFetcher struct {
	mu      sync.Mutex
	queries []string
	snap    *weather.Snapshot
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, loc string, ind weather.Indicator) (*weather.Snapshot, error) {
	ind.SetLoading(true)
	defer ind.SetLoading(false)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, loc)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type memPrefs struct {
	mu       sync.Mutex
	location string
	city     string
}

func (p *memPrefs) LastLocation(context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, p.location != ""
}

func (p *memPrefs) LastCity(context.Context) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.city, p.city != ""
}

func (p *memPrefs) SaveLastLocation(_ context.Context, loc string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = loc
	return nil
}

func (p *memPrefs) SaveLocation(_ context.Context, loc, city string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location, p.city = loc, city
	return nil
}

type fakeConn struct {
	mu     sync.Mutex
	msgs   []effects.Message
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v.(effects.Message))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.Type
	}
	return out
}

func loadSnapshot(t *testing.T) *weather.Snapshot {
	t.Helper()
	data, err := os.ReadFile("../weather/testdata/forecast.json")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	var s weather.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return &s
}

func newTestService(t *testing.T, f *fakeFetcher, prefs *memPrefs) *Service {
	t.Helper()
	reg := NewRegistry(quietFlicker, time.Minute)
	t.Cleanup(reg.Close)
	svc := &Service{
		Weather:  f,
		Resolver: location.NewResolver("Delhi", 50*time.Millisecond),
		Pipeline: view.NewPipeline(nil),
		Sessions: reg,
	}
	if prefs != nil {
		svc.Prefs = func(string) Preferences { return prefs }
	}
	return svc
}

func TestSearchFullUpdate(t *testing.T) {
	f := &fakeFetcher{snap: loadSnapshot(t)}
	prefs := &memPrefs{}
	svc := newTestService(t, f, prefs)
	sess := svc.Sessions.Get("visitor-1")

	d, err := svc.Search(context.Background(), sess, "  New Delhi ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.queries) != 1 || f.queries[0] != "New Delhi" {
		t.Errorf("expected trimmed query, got %v", f.queries)
	}
	if d.Text(view.Temperature) != "24°C" || sess.Display() != d {
		t.Errorf("expected stored display with temperature, got %q", d.Text(view.Temperature))
	}
	if sess.Snapshot() == nil {
		t.Error("expected snapshot stored")
	}
	if prefs.location != "28.6,77.2" || prefs.city != "New Delhi" {
		t.Errorf("expected location persisted, got %q / %q", prefs.location, prefs.city)
	}
	if got := svc.LastCity(context.Background(), sess.ID); got != "New Delhi" {
		t.Errorf("expected last city, got %q", got)
	}

	state, ok := sess.Effects.Active()
	if !ok || state.Category != condition.Thunderstorm || !state.IsDay {
		t.Errorf("unexpected effect state %+v", state)
	}
	// No page attached: the gradient stands in.
	if !state.Fallback || !strings.Contains(sess.Canvas.Background(), "#2c3e50") {
		t.Errorf("expected thunderstorm gradient, got %q", sess.Canvas.Background())
	}
	if sess.Loading() {
		t.Error("loading flag should be cleared")
	}
}

func TestSearchEmptyCity(t *testing.T) {
	f := &fakeFetcher{snap: loadSnapshot(t)}
	svc := newTestService(t, f, nil)
	sess := svc.Sessions.Get("visitor-1")

	if got := svc.LastCity(context.Background(), sess.ID); got != "" {
		t.Errorf("expected no last city without persistence, got %q", got)
	}

	d, err := svc.Search(context.Background(), sess, "   ")
	if !errors.Is(err, ErrEmptySearch) {
		t.Fatalf("expected ErrEmptySearch, got %v", err)
	}
	if len(f.queries) != 0 {
		t.Errorf("expected no request, got %v", f.queries)
	}
	if d.Text(view.CityName) != MsgEmptySearch {
		t.Errorf("expected prompt, got %q", d.Text(view.CityName))
	}
}

func TestFetchErrorKeepsPreviousDisplay(t *testing.T) {
	f := &fakeFetcher{snap: loadSnapshot(t)}
	svc := newTestService(t, f, nil)
	sess := svc.Sessions.Get("visitor-1")

	if _, err := svc.Search(context.Background(), sess, "Delhi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := sess.Effects.Active()
	prevSnap := sess.Snapshot()

	f.err = &weather.FetchError{StatusCode: 404}
	d, err := svc.Search(context.Background(), sess, "Atlantis")

	var fe *weather.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 404 {
		t.Fatalf("expected FetchError 404, got %v", err)
	}
	if d.Text(view.CityName) != MsgFetchFailed {
		t.Errorf("expected error message, got %q", d.Text(view.CityName))
	}
	if d.Text(view.Temperature) != "24°C" {
		t.Errorf("expected previous temperature kept, got %q", d.Text(view.Temperature))
	}
	if !strings.Contains(d.Notice, "404") {
		t.Errorf("expected notice with status, got %q", d.Notice)
	}
	if sess.Snapshot() != prevSnap {
		t.Error("snapshot should not change on failure")
	}
	if after, _ := sess.Effects.Active(); after != before {
		t.Errorf("effect should not change on failure: %+v -> %+v", before, after)
	}
	if sess.Loading() {
		t.Error("loading flag should be cleared after failure")
	}
}

func TestFirstFetchErrorHidesOptionalSections(t *testing.T) {
	f := &fakeFetcher{err: &weather.FetchError{StatusCode: 500}}
	svc := newTestService(t, f, nil)
	sess := svc.Sessions.Get("visitor-1")

	d, err := svc.Search(context.Background(), sess, "Delhi")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if d.Text(view.CityName) != MsgFetchFailed {
		t.Errorf("expected error message, got %q", d.Text(view.CityName))
	}
	for _, r := range []view.Region{view.Hourly, view.Alerts} {
		if !d.Hidden(r) {
			t.Errorf("expected %s hidden with no previous display", r)
		}
	}
}

func TestPartialSnapshotSkipsEffect(t *testing.T) {
	snap := loadSnapshot(t)
	snap.Current = nil
	prefs := &memPrefs{}
	svc := newTestService(t, &fakeFetcher{snap: snap}, prefs)
	sess := svc.Sessions.Get("visitor-1")

	if _, err := svc.Search(context.Background(), sess, "Delhi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sess.Effects.Active(); ok {
		t.Error("expected no effect for partial snapshot")
	}
	if prefs.location != "" {
		t.Errorf("expected nothing persisted, got %q", prefs.location)
	}
}

func TestLocateFallbackChain(t *testing.T) {
	tests := []struct {
		name  string
		geo   location.Geolocator
		saved string
		want  string
	}{
		{"live position", location.Position{Coords: location.Coordinates{Lat: 48.85, Lon: 2.35}, Valid: true}, "", "48.85,2.35"},
		{"denied uses saved", location.Position{Denied: true}, "51.5,-0.12", "51.5,-0.12"},
		{"denied without saved", location.Position{Denied: true}, "", "Delhi"},
		{"no geolocator", nil, "", "Delhi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{snap: loadSnapshot(t)}
			svc := newTestService(t, f, &memPrefs{location: tt.saved})
			sess := svc.Sessions.Get("visitor-1")

			if _, err := svc.Locate(context.Background(), sess, tt.geo); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.queries) != 1 || f.queries[0] != tt.want {
				t.Errorf("expected query %q, got %v", tt.want, f.queries)
			}
		})
	}
}

func TestAttachReplaysEffect(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{snap: loadSnapshot(t)}, nil)
	sess := svc.Sessions.Get("visitor-1")
	if _, err := svc.Search(context.Background(), sess, "Delhi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conn := &fakeConn{}
	sess.Attach(conn)

	// The gradient is cleared and the shader effect takes over.
	got := conn.types()
	if len(got) != 2 || got[0] != effects.MsgGradient || got[1] != effects.MsgEffect {
		t.Fatalf("unexpected replay %v", got)
	}
	state, _ := sess.Effects.Active()
	if state.Fallback {
		t.Error("expected live effect once attached")
	}
	if sess.Canvas.Background() != "" {
		t.Errorf("expected canvas cleared, got %q", sess.Canvas.Background())
	}

	// Refreshing while attached reports loading and swaps the effect.
	if _, err := svc.Search(context.Background(), sess, "Delhi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = conn.types()[2:]
	want := []string{effects.MsgLoading, effects.MsgLoading, effects.MsgDestroy, effects.MsgEffect}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}

	sess.Detach(conn)
	if state, _ := sess.Effects.Active(); !state.Fallback {
		t.Error("expected gradient after detach")
	}
	if sess.Canvas.Background() == "" {
		t.Error("expected gradient painted after detach")
	}
}

func TestAttachReplacesPreviousConn(t *testing.T) {
	reg := NewRegistry(quietFlicker, time.Minute)
	defer reg.Close()
	sess := reg.Get("visitor-1")

	first, second := &fakeConn{}, &fakeConn{}
	sess.Attach(first)
	sess.Attach(second)
	if !first.closed {
		t.Error("expected previous socket closed")
	}

	// A stale detach must not disconnect the new socket.
	sess.Detach(first)
	if !sess.Connected() {
		t.Error("expected session still connected")
	}
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	reg := NewRegistry(quietFlicker, time.Minute)
	defer reg.Close()

	now := time.Unix(1760590800, 0)
	reg.now = func() time.Time { return now }

	idle := reg.Get("idle")
	idle.Effects.Apply(condition.Rain, true)
	connected := reg.Get("connected")
	connected.Attach(&fakeConn{})

	if reg.Get("idle") != idle {
		t.Fatal("expected the same session for the same visitor")
	}

	now = now.Add(2 * time.Minute)
	if n := reg.cleanup(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, ok := reg.Lookup("idle"); ok {
		t.Error("idle session should be evicted")
	}
	if _, ok := idle.Effects.Active(); ok {
		t.Error("evicted session effect should be destroyed")
	}
	if _, ok := reg.Lookup("connected"); !ok {
		t.Error("connected session should be kept")
	}
}
