package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Location.Default != "Delhi" {
		t.Errorf("expected default location Delhi, got %q", cfg.Location.Default)
	}
	if cfg.Weather.ForecastDays != 3 {
		t.Errorf("expected 3 forecast days, got %d", cfg.Weather.ForecastDays)
	}
	if cfg.GeolocationTimeout() != 5*time.Second {
		t.Errorf("expected 5s geolocation timeout, got %v", cfg.GeolocationTimeout())
	}
	if cfg.FlickerInterval() != 500*time.Millisecond {
		t.Errorf("expected 500ms flicker interval, got %v", cfg.FlickerInterval())
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skywatch.yaml")
	yml := `
server:
  port: "9000"
weather:
  api_key: from-file
  host: example.test
location:
  default: Pune
database:
  driver: postgres
  dsn: postgres://localhost/skywatch
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WEATHER_API_KEY", "from-env")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr() != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Addr())
	}
	if cfg.Weather.APIKey != "from-env" {
		t.Errorf("expected env key to win, got %q", cfg.Weather.APIKey)
	}
	if cfg.Weather.Host != "example.test" {
		t.Errorf("expected host from file, got %q", cfg.Weather.Host)
	}
	if cfg.Location.Default != "Pune" {
		t.Errorf("expected default Pune, got %q", cfg.Location.Default)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	// Untouched sections keep their defaults.
	if cfg.Weather.ForecastDays != 3 {
		t.Errorf("expected forecast days 3, got %d", cfg.Weather.ForecastDays)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestInvalidFlickerIntervalLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Setenv("FLICKER_INTERVAL_MS", "fast")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Effects.FlickerIntervalMillis != 500 {
		t.Errorf("expected default interval kept, got %d", cfg.Effects.FlickerIntervalMillis)
	}
	if !strings.Contains(buf.String(), "Warning: invalid FLICKER_INTERVAL_MS") {
		t.Errorf("expected warning in log output, got %q", buf.String())
	}
}
