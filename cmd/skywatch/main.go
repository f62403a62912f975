package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/swelljoe/skywatch/internal/config"
	"github.com/swelljoe/skywatch/internal/dashboard"
	"github.com/swelljoe/skywatch/internal/db"
	"github.com/swelljoe/skywatch/internal/effects"
	"github.com/swelljoe/skywatch/internal/handlers"
	"github.com/swelljoe/skywatch/internal/location"
	"github.com/swelljoe/skywatch/internal/view"
	"github.com/swelljoe/skywatch/internal/weather"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	configPath := os.Getenv("SKYWATCH_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Weather.APIKey == "" {
		log.Println("Warning: WEATHER_API_KEY is not set; upstream requests will be rejected")
	}

	// Initialize database connection
	var database *db.DB
	if d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		log.Printf("Warning: Database connection failed: %v", err)
		log.Println("Continuing without database connection...")
	} else {
		database = d
		defer database.Close()
		log.Println("Database connected successfully")
	}

	client := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.Host, cfg.Weather.BaseURL, cfg.WeatherTimeout())
	client.Days = cfg.Weather.ForecastDays

	sessions := dashboard.NewRegistry(effects.FlickerConfig{
		Interval:    cfg.FlickerInterval(),
		Probability: cfg.Effects.FlickerProbability,
	}, dashboard.DefaultIdleTimeout)

	svc := &dashboard.Service{
		Weather:  client,
		Resolver: location.NewResolver(cfg.Location.Default, cfg.GeolocationTimeout()),
		Pipeline: view.NewPipeline(nil),
		Sessions: sessions,
	}
	var hdb handlers.Database
	if database != nil {
		hdb = database
		svc.Prefs = func(visitor string) dashboard.Preferences { return database.Prefs(visitor) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Run(ctx)

	h := handlers.New(hdb, svc, handlers.Options{
		TemplatesDir: cfg.Server.TemplatesDir,
		IPLookupURL:  cfg.Location.IPLookupURL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes(h, cfg.Server.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stops the idle sweep and tears down every session's effect.
	cancel()
	sessions.Close()
	log.Println("Shutdown complete")
}

func routes(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files
	fs := http.FileServer(http.Dir(staticDir))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("/", h.HandleIndex)
	mux.HandleFunc("/weather", h.HandleWeather)
	mux.HandleFunc("/weather/locate", h.HandleLocate)
	mux.HandleFunc("/ws", h.HandleEffects)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}
