package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ISOCHRONE_BASE_URL", "OVERLAY_SWAP_MODE", "UI_LANGUAGE",
		"MARKER_STYLE", "STATION_SOURCE", "FETCH_TIMEOUT", "MAP_ZOOM",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.IsochroneBaseURL != "http://localhost:8081/isochrones" {
		t.Errorf("IsochroneBaseURL = %q", cfg.IsochroneBaseURL)
	}
	if cfg.OverlaySwapMode != "immediate" {
		t.Errorf("OverlaySwapMode = %q", cfg.OverlaySwapMode)
	}
	if cfg.UILanguage != "es" || cfg.MarkerStyle != "icon" {
		t.Errorf("presentation = %q/%q", cfg.UILanguage, cfg.MarkerStyle)
	}
	if cfg.MapCenterLat != -0.22 || cfg.MapCenterLng != -78.52 || cfg.MapZoom != 12 {
		t.Errorf("map = %v,%v z%d", cfg.MapCenterLat, cfg.MapCenterLng, cfg.MapZoom)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ISOCHRONE_BASE_URL", "https://cdn.example.test/iso")
	t.Setenv("FETCH_TIMEOUT", "3")
	t.Setenv("REFRESH_TIMEOUT", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("MAP_ZOOM", "not-a-number")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.IsochroneBaseURL != "https://cdn.example.test/iso" {
		t.Errorf("IsochroneBaseURL = %q", cfg.IsochroneBaseURL)
	}
	if cfg.FetchTimeout != 3*time.Second || cfg.RefreshTimeout != 90*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.FetchTimeout, cfg.RefreshTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.test" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MapZoom != 12 {
		t.Errorf("invalid MAP_ZOOM should fall back to default, got %d", cfg.MapZoom)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"deferred swap", func(c *Config) { c.OverlaySwapMode = "deferred" }, false},
		{"unknown swap", func(c *Config) { c.OverlaySwapMode = "lazy" }, true},
		{"unknown source", func(c *Config) { c.StationSource = "csv" }, true},
		{"postgres without url", func(c *Config) { c.StationSource = "postgres" }, true},
		{"postgres with url", func(c *Config) {
			c.StationSource = "postgres"
			c.DatabaseURL = "postgres://localhost/metro"
		}, false},
		{"negative concurrency", func(c *Config) { c.RefreshConcurrency = -1 }, true},
		{"zoom too high", func(c *Config) { c.MapZoom = 25 }, true},
		{"english circles", func(c *Config) {
			c.UILanguage = "en"
			c.MarkerStyle = "circle"
		}, false},
		{"unknown language", func(c *Config) { c.UILanguage = "fr" }, true},
		{"unknown marker style", func(c *Config) { c.MarkerStyle = "pin" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				OverlaySwapMode: "immediate",
				StationSource:   "builtin",
				MapZoom:         12,
				UILanguage:      "es",
				MarkerStyle:     "icon",
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
