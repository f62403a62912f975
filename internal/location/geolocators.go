package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrDenied is returned when the browser reported a refused permission prompt
var ErrDenied = errors.New("geolocation permission denied")

// Position is the position reported by the browser with the refresh request.
type Position struct {
	Coords Coordinates
	Valid  bool
	Denied bool
}

// PositionFromForm builds a Position from "lat"/"lon"/"denied" request values.
// Missing or malformed coordinates produce an invalid Position.
func PositionFromForm(lat, lon, denied string) Position {
	if denied == "1" || strings.EqualFold(denied, "true") {
		return Position{Denied: true}
	}
	if lat == "" || lon == "" {
		return Position{}
	}
	c, err := parsePair(lat, lon)
	if err != nil {
		return Position{}
	}
	return Position{Coords: c, Valid: true}
}

func (p Position) Locate(ctx context.Context) (Coordinates, error) {
	if p.Denied {
		return Coordinates{}, ErrDenied
	}
	if !p.Valid {
		return Coordinates{}, ErrUnavailable
	}
	return p.Coords, nil
}

// IPLocator geolocates a client address through an HTTP lookup service.
// URLTemplate must contain "{ip}", e.g. "http://ip-api.com/json/{ip}".
type IPLocator struct {
	URLTemplate string
	IP          string
	HTTPClient  *http.Client
}

// NewIPLocator returns nil when the lookup is not configured or the address is
// not routable, which the Resolver treats as "no geolocation capability".
func NewIPLocator(urlTemplate, remoteAddr string) *IPLocator {
	if urlTemplate == "" {
		return nil
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return nil
	}
	return &IPLocator{
		URLTemplate: urlTemplate,
		IP:          ip.String(),
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

type ipLookupResponse struct {
	Status    string   `json:"status"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	u := strings.ReplaceAll(l.URLTemplate, "{ip}", url.PathEscape(l.IP))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("create ip lookup request: %w", err)
	}

	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("ip lookup error: %d %s", resp.StatusCode, resp.Status)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("decode ip lookup: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return Coordinates{}, fmt.Errorf("ip lookup status %q: %w", body.Status, ErrUnavailable)
	}

	lat, lon := body.Lat, body.Lon
	if lat == nil || lon == nil {
		lat, lon = body.Latitude, body.Longitude
	}
	if lat == nil || lon == nil {
		return Coordinates{}, ErrUnavailable
	}
	return Coordinates{Lat: *lat, Lon: *lon}, nil
}

// Live picks the geolocator for a refresh: the browser's answer when it gave
// one, otherwise an IP lookup when configured, otherwise none.
func Live(pos Position, lookupURL, remoteAddr string) Geolocator {
	if pos.Valid || pos.Denied {
		return pos
	}
	if ip := NewIPLocator(lookupURL, remoteAddr); ip != nil {
		return ip
	}
	return nil
}
