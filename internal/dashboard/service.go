package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/swelljoe/skywatch/internal/condition"
	"github.com/swelljoe/skywatch/internal/location"
	"github.com/swelljoe/skywatch/internal/view"
	"github.com/swelljoe/skywatch/internal/weather"
)

// Messages shown in the primary field when a refresh cannot complete.
const (
	MsgFetchFailed = "⚠️ Error fetching data."
	MsgEmptySearch = "⚠️ Please enter a city name."
)

// ErrEmptySearch is returned by Search for a blank city.
var ErrEmptySearch = errors.New("empty search")

// Fetcher retrieves a snapshot for a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string, ind weather.Indicator) (*weather.Snapshot, error)
}

// Preferences is the visitor state persisted after a full update.
type Preferences interface {
	location.Preferences
	LastCity(ctx context.Context) (string, bool)
	SaveLocation(ctx context.Context, location, city string) error
}

// Service runs refreshes for sessions.
type Service struct {
	Weather  Fetcher
	Resolver *location.Resolver
	Pipeline *view.Pipeline
	Sessions *Registry

	// Prefs scopes persisted state to a visitor. Nil disables persistence.
	Prefs func(visitor string) Preferences
}

// Search refreshes the session for a typed city.
func (s *Service) Search(ctx context.Context, sess *Session, city string) (*view.Display, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return sess.showMessage(MsgEmptySearch, ""), ErrEmptySearch
	}
	return s.refresh(ctx, sess, city)
}

// Locate resolves the visitor's location through the fallback chain and
// refreshes the session for it. geo may be nil.
func (s *Service) Locate(ctx context.Context, sess *Session, geo location.Geolocator) (*view.Display, error) {
	loc := s.Resolver.Resolve(ctx, geo, s.preferences(sess.ID))
	return s.refresh(ctx, sess, loc)
}

func (s *Service) refresh(ctx context.Context, sess *Session, loc string) (*view.Display, error) {
	snap, err := s.Weather.Fetch(ctx, loc, sess)
	if err != nil {
		log.Printf("dashboard: fetch %q: %v", loc, err)
		return sess.showMessage(MsgFetchFailed, err.Error()), err
	}

	d := s.Pipeline.Run(ctx, snap, s.hooks(sess)...)
	sess.store(snap, d)
	return d, nil
}

// hooks persist the location and then drive the background effect.
func (s *Service) hooks(sess *Session) []view.Hook {
	prefs := s.preferences(sess.ID)
	return []view.Hook{
		{Name: "persist", Run: func(ctx context.Context, snap *weather.Snapshot) error {
			if prefs == nil {
				return nil
			}
			coords := location.Coordinates{Lat: snap.Location.Lat, Lon: snap.Location.Lon}
			if err := prefs.SaveLocation(ctx, coords.String(), snap.Location.Name); err != nil {
				return fmt.Errorf("persist location: %w", err)
			}
			return nil
		}},
		{Name: "effect", Run: func(_ context.Context, snap *weather.Snapshot) error {
			text := ""
			if snap.Current.Condition != nil {
				text = snap.Current.Condition.Text
			}
			sess.Effects.Apply(condition.Classify(text), snap.Current.Daytime())
			return nil
		}},
	}
}

// LastCity returns the display name of the visitor's last full update, "" when unknown.
func (s *Service) LastCity(ctx context.Context, visitor string) string {
	prefs := s.preferences(visitor)
	if prefs == nil {
		return ""
	}
	city, _ := prefs.LastCity(ctx)
	return city
}

func (s *Service) preferences(visitor string) Preferences {
	if s.Prefs == nil {
		return nil
	}
	return s.Prefs(visitor)
}
