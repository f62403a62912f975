package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the dashboard
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Weather  WeatherConfig  `yaml:"weather"`
	Location LocationConfig `yaml:"location"`
	Database DatabaseConfig `yaml:"database"`
	Effects  EffectsConfig  `yaml:"effects"`
}

type ServerConfig struct {
	Port                   string `yaml:"port"`
	TemplatesDir           string `yaml:"templates_dir"`
	StaticDir              string `yaml:"static_dir"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type WeatherConfig struct {
	BaseURL        string `yaml:"base_url"`
	Host           string `yaml:"host"`
	APIKey         string `yaml:"api_key"`
	ForecastDays   int    `yaml:"forecast_days"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LocationConfig struct {
	Default                   string `yaml:"default"`
	GeolocationTimeoutSeconds int    `yaml:"geolocation_timeout_seconds"`
	// IPLookupURL is a template containing "{ip}". Empty disables IP geolocation.
	IPLookupURL string `yaml:"ip_lookup_url"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type EffectsConfig struct {
	FlickerIntervalMillis int     `yaml:"flicker_interval_ms"`
	FlickerProbability    float64 `yaml:"flicker_probability"`
}

// Default returns the built-in configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8080",
			TemplatesDir:           "templates",
			StaticDir:              "static",
			ShutdownTimeoutSeconds: 10,
		},
		Weather: WeatherConfig{
			BaseURL:        "https://weatherapi-com.p.rapidapi.com",
			Host:           "weatherapi-com.p.rapidapi.com",
			ForecastDays:   3,
			TimeoutSeconds: 10,
		},
		Location: LocationConfig{
			Default:                   "Delhi",
			GeolocationTimeoutSeconds: 5,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "skywatch.db",
		},
		Effects: EffectsConfig{
			FlickerIntervalMillis: 500,
			FlickerProbability:    0.3,
		},
	}
}

// Load reads the YAML file at path (if it exists) over the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Weather.ForecastDays <= 0 {
		cfg.Weather.ForecastDays = 3
	}
	if cfg.Location.Default == "" {
		cfg.Location.Default = "Delhi"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if dir := os.Getenv("TEMPLATES_DIR"); dir != "" {
		cfg.Server.TemplatesDir = dir
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		cfg.Server.StaticDir = dir
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		cfg.Weather.APIKey = key
	}
	if host := os.Getenv("WEATHER_API_HOST"); host != "" {
		cfg.Weather.Host = host
	}
	if base := os.Getenv("WEATHER_API_URL"); base != "" {
		cfg.Weather.BaseURL = base
	}
	if loc := os.Getenv("DEFAULT_LOCATION"); loc != "" {
		cfg.Location.Default = loc
	}
	if u := os.Getenv("IP_LOOKUP_URL"); u != "" {
		cfg.Location.IPLookupURL = u
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if v := os.Getenv("FLICKER_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Effects.FlickerIntervalMillis = ms
		} else {
			log.Printf("Warning: invalid FLICKER_INTERVAL_MS %q, keeping %d", v, cfg.Effects.FlickerIntervalMillis)
		}
	}
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

func (c *Config) GeolocationTimeout() time.Duration {
	return time.Duration(c.Location.GeolocationTimeoutSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) FlickerInterval() time.Duration {
	return time.Duration(c.Effects.FlickerIntervalMillis) * time.Millisecond
}
