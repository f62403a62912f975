package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://weatherapi-com.p.rapidapi.com"
	DefaultHost    = "weatherapi-com.p.rapidapi.com"
)

// Indicator receives the loading state around a fetch
type Indicator interface {
	SetLoading(on bool)
}

// FetchError reports a failed weather request: either a non-2xx status or a
// transport/decoding failure (StatusCode 0).
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("weather API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("weather API request failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the weatherapi.com forecast endpoint through RapidAPI
type Client struct {
	APIKey     string
	Host       string
	BaseURL    string
	Days       int
	HTTPClient *http.Client
}

// NewClient creates a client with an explicit timeout instead of http.DefaultClient
func NewClient(apiKey, host, baseURL string, timeout time.Duration) *Client {
	if host == "" {
		host = DefaultHost
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		APIKey:  apiKey,
		Host:    host,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Days:    3,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch requests the forecast, air quality and alerts for location.
// ind may be nil; when set it is switched on for the duration of the request
// and always switched off again.
func (c *Client) Fetch(ctx context.Context, location string, ind Indicator) (*Snapshot, error) {
	if ind != nil {
		ind.SetLoading(true)
		defer ind.SetLoading(false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.forecastURL(location), nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("x-rapidapi-key", c.APIKey)
	req.Header.Set("x-rapidapi-host", c.Host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode response: %w", err)}
	}

	log.Printf("weather: fetched %q", location)
	return &snap, nil
}

func (c *Client) forecastURL(location string) string {
	days := c.Days
	if days <= 0 {
		days = 3
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "yes")
	params.Set("alerts", "yes")
	return c.BaseURL + "/forecast.json?" + params.Encode()
}
