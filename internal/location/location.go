// Package location decides what place a refresh should query when the user
// has not typed one: live position first, then the visitor's last successful
// location, then a fixed default.
package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// DefaultLocation is queried when nothing better is known
const DefaultLocation = "Delhi"

// ErrUnavailable means no live position can be obtained
var ErrUnavailable = errors.New("geolocation unavailable")

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64
	Lon float64
}

// String formats the pair as "lat,lon", the form accepted by the weather API.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// ParseCoordinates parses "lat,lon" and validates the ranges.
func ParseCoordinates(s string) (Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("invalid coordinates %q", s)
	}
	return parsePair(strings.TrimSpace(latStr), strings.TrimSpace(lonStr))
}

func parsePair(latStr, lonStr string) (Coordinates, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return Coordinates{}, fmt.Errorf("latitude out of range: %f", lat)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude: %w", err)
	}
	if lon < -180 || lon > 180 {
		return Coordinates{}, fmt.Errorf("longitude out of range: %f", lon)
	}

	return Coordinates{Lat: lat, Lon: lon}, nil
}

// Geolocator obtains a live position
type Geolocator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Preferences is the visitor's persisted fallback state
type Preferences interface {
	LastLocation(ctx context.Context) (string, bool)
	SaveLastLocation(ctx context.Context, location string) error
}

// LocationError records why live geolocation was skipped. It is logged, never returned.
type LocationError struct {
	Err error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location: %v", e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// Resolver runs the fallback chain
type Resolver struct {
	Default string
	Timeout time.Duration
}

// NewResolver returns a Resolver with the default location and a 5s geolocation bound.
func NewResolver(def string, timeout time.Duration) *Resolver {
	if def == "" {
		def = DefaultLocation
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{Default: def, Timeout: timeout}
}

// Resolve always returns a location. geo and prefs may be nil.
func (r *Resolver) Resolve(ctx context.Context, geo Geolocator, prefs Preferences) string {
	if geo != nil {
		if loc, err := r.locate(ctx, geo); err == nil {
			if prefs != nil {
				if err := prefs.SaveLastLocation(ctx, loc); err != nil {
					log.Printf("location: failed to persist %s: %v", loc, err)
				}
			}
			return loc
		} else {
			log.Printf("%v", &LocationError{Err: err})
		}
	}

	if prefs != nil {
		if loc, ok := prefs.LastLocation(ctx); ok && loc != "" {
			return loc
		}
	}

	def := r.Default
	if def == "" {
		def = DefaultLocation
	}
	return def
}

func (r *Resolver) locate(ctx context.Context, geo Geolocator) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos Coordinates
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := geo.Locate(ctx)
		done <- result{pos, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return res.pos.String(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("geolocation timed out: %w", ctx.Err())
	}
}
