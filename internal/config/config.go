package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the map service
type Config struct {
	// HTTP server
	Port               string
	CORSAllowedOrigins []string
	PublicURL          string

	// Isochrone files
	IsochroneDir      string
	IsochroneBaseURL  string
	IsochroneMaxBytes int64
	FetchTimeout      time.Duration

	// Refresh
	RefreshTimeout     time.Duration
	RefreshConcurrency int
	OverlaySwapMode    string

	// Presentation
	UILanguage  string
	MarkerStyle string

	// Map
	MapCenterLat    float64
	MapCenterLng    float64
	MapZoom         int
	TileURL         string
	TileAttribution string

	// Station source
	StationSource string
	SQLitePath    string
	DatabaseURL   string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	cfg := &Config{
		// HTTP server
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081", "http://localhost:3000"}),
		PublicURL:          getEnv("PUBLIC_URL", "/static"),

		// Isochrone files
		IsochroneDir:      getEnv("ISOCHRONE_DIR", "./public/isochrones"),
		IsochroneBaseURL:  getEnv("ISOCHRONE_BASE_URL", ""),
		IsochroneMaxBytes: int64(getEnvInt("ISOCHRONE_MAX_BYTES", 8<<20)),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 15*time.Second),

		// Refresh
		RefreshTimeout:     getEnvDuration("REFRESH_TIMEOUT", 60*time.Second),
		RefreshConcurrency: getEnvInt("REFRESH_CONCURRENCY", 0),
		OverlaySwapMode:    getEnv("OVERLAY_SWAP_MODE", "immediate"),

		// Presentation
		UILanguage:  getEnv("UI_LANGUAGE", "es"),
		MarkerStyle: getEnv("MARKER_STYLE", "icon"),

		// Map
		MapCenterLat:    getEnvFloat("MAP_CENTER_LAT", -0.22),
		MapCenterLng:    getEnvFloat("MAP_CENTER_LNG", -78.52),
		MapZoom:         getEnvInt("MAP_ZOOM", 12),
		TileURL:         getEnv("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttribution: getEnv("TILE_ATTRIBUTION", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`),

		// Station source
		StationSource: getEnv("STATION_SOURCE", "builtin"),
		SQLitePath:    getEnv("SQLITE_DATABASE", "./data/stations.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
	}

	// Derived: fetch isochrones from our own static mount unless told otherwise
	if cfg.IsochroneBaseURL == "" {
		cfg.IsochroneBaseURL = "http://localhost:" + cfg.Port + "/isochrones"
	}

	return cfg
}

// Validate rejects unknown enum values and out-of-range numbers
func (c *Config) Validate() error {
	switch c.OverlaySwapMode {
	case "immediate", "deferred":
	default:
		return fmt.Errorf("OVERLAY_SWAP_MODE must be immediate or deferred, got %q", c.OverlaySwapMode)
	}

	switch c.StationSource {
	case "builtin", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("STATION_SOURCE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("STATION_SOURCE must be builtin, sqlite or postgres, got %q", c.StationSource)
	}

	switch strings.ToLower(c.UILanguage) {
	case "es", "en":
	default:
		return fmt.Errorf("UI_LANGUAGE must be es or en, got %q", c.UILanguage)
	}

	switch strings.ToLower(c.MarkerStyle) {
	case "icon", "circle":
	default:
		return fmt.Errorf("MARKER_STYLE must be icon or circle, got %q", c.MarkerStyle)
	}

	if c.RefreshConcurrency < 0 {
		return fmt.Errorf("REFRESH_CONCURRENCY must not be negative")
	}
	if c.MapZoom < 0 || c.MapZoom > 20 {
		return fmt.Errorf("MAP_ZOOM must be between 0 and 20, got %d", c.MapZoom)
	}
	if c.MapCenterLat < -90 || c.MapCenterLat > 90 || c.MapCenterLng < -180 || c.MapCenterLng > 180 {
		return fmt.Errorf("map center out of range: %f,%f", c.MapCenterLat, c.MapCenterLng)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare numbers are seconds
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
