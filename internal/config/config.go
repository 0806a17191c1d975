package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

// Stats layouts understood by STATS_LAYOUT.
const (
	LayoutWeeks = "weeks"
	LayoutDays  = "days"
)

// Map renderer selections understood by MAP_RENDERER.
const (
	RendererAuto   = "auto"
	RendererStatic = "static"
	RendererVector = "vector"
	RendererNone   = "none"
)

type Config struct {
	StravaClientID     string
	StravaClientSecret string
	StravaCallbackURL  string
	StravaAPIURL       string
	StravaAuthURL      string
	StravaTokenURL     string

	// SeedRefreshToken bootstraps the token store when it is empty.
	SeedRefreshToken string
	AdminKey         string

	MapboxAccessToken string
	MapRenderer       string

	KVURL           string
	KVToken         string
	TokenStorageDir string

	SessionSecret string
	Port          string
	Location      *time.Location
	HTTPTimeout   time.Duration

	StatsWeeks               int
	StatsLayout              string
	AllowRequestRefreshToken bool
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		StravaClientID:     getEnv("STRAVA_CLIENT_ID", "206136"),
		StravaClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		StravaCallbackURL:  getEnv("STRAVA_CALLBACK_URL", "http://localhost:8080/auth/callback"),
		StravaAPIURL:       getEnv("STRAVA_API_URL", "https://www.strava.com/api/v3"),
		StravaAuthURL:      getEnv("STRAVA_AUTH_URL", "https://www.strava.com/oauth/authorize"),
		StravaTokenURL:     getEnv("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token"),
		SeedRefreshToken:   os.Getenv("STRAVA_REFRESH_TOKEN_SEED"),
		AdminKey:           os.Getenv("ADMIN_KEY"),
		MapboxAccessToken:  os.Getenv("MAPBOX_ACCESS_TOKEN"),
		MapRenderer:        getEnv("MAP_RENDERER", RendererAuto),
		KVURL:              os.Getenv("UPSTASH_REDIS_REST_URL"),
		KVToken:            os.Getenv("UPSTASH_REDIS_REST_TOKEN"),
		TokenStorageDir:    os.Getenv("TOKEN_STORAGE_DIR"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		Port:               getEnv("PORT", "8080"),
		StatsLayout:        getEnv("STATS_LAYOUT", LayoutWeeks),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.HTTPTimeout = 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.HTTPTimeout = d
	}

	cfg.StatsWeeks = 4
	if v := os.Getenv("STATS_WEEKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid STATS_WEEKS %q: must be a positive integer", v)
		}
		cfg.StatsWeeks = n
	}

	if v := os.Getenv("ALLOW_REQUEST_REFRESH_TOKEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOW_REQUEST_REFRESH_TOKEN %q: %w", v, err)
		}
		cfg.AllowRequestRefreshToken = b
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		// Sessions only carry the OAuth state, so losing them on restart is harmless.
		log.Println("SESSION_SECRET not set, generating an ephemeral session key")
		cfg.SessionSecret = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StatsLayout {
	case LayoutWeeks, LayoutDays:
	default:
		return fmt.Errorf("invalid STATS_LAYOUT %q: want %q or %q", c.StatsLayout, LayoutWeeks, LayoutDays)
	}
	switch c.MapRenderer {
	case RendererAuto, RendererStatic, RendererVector, RendererNone:
	default:
		return fmt.Errorf("invalid MAP_RENDERER %q", c.MapRenderer)
	}
	if c.KVURL != "" && c.KVToken == "" {
		return fmt.Errorf("UPSTASH_REDIS_REST_TOKEN is required when UPSTASH_REDIS_REST_URL is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
