// Package config loads the client's connection settings from the process
// environment, optionally overlaid with a ".env" file (joho/godotenv) the
// way the teacher's bootstrap loaded a config file before falling back to
// defaults.
package config

import (
	"os"

	"github.com/joho/godotenv"

	"polygongo/polygonerr"
)

const (
	envAPIURL    = "POLYGON_API_URL"
	envStreamURL = "POLYGON_STREAM_URL"
	envAPIKey    = "POLYGON_API_KEY"

	defaultAPIURL    = "https://api.polygon.io"
	defaultStreamURL = "wss://socket.polygon.io"
)

// Config holds everything needed to construct a client.Client.
type Config struct {
	APIURL    string
	StreamURL string
	APIKey    string
}

// Load reads ".env" (if present; its absence is not an error) into the
// process environment, then builds a Config from POLYGON_API_URL,
// POLYGON_STREAM_URL and POLYGON_API_KEY. APIKey is required; the URLs fall
// back to Polygon's production hosts.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, &polygonerr.InvalidConfigError{Name: ".env", Err: err}
	}

	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return nil, &polygonerr.MissingEnvError{Name: envAPIKey}
	}

	cfg := &Config{
		APIURL:    getenvDefault(envAPIURL, defaultAPIURL),
		StreamURL: getenvDefault(envStreamURL, defaultStreamURL),
		APIKey:    apiKey,
	}
	return cfg, nil
}

func getenvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
