// Package server wires configuration into the stats handler and the OAuth
// bootstrap flow.
package server

import (
	"log"
	"net/http"

	"github.com/arungupta/strava-stats-proxy/internal/api"
	"github.com/arungupta/strava-stats-proxy/internal/auth"
	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/handler"
	"github.com/arungupta/strava-stats-proxy/internal/store"
)

type Server struct {
	Stats         http.Handler
	Authenticator *auth.Authenticator
}

// NewTokenStore picks Upstash when configured, then a directory, then memory.
func NewTokenStore(cfg *config.Config, httpClient *http.Client) store.TokenStore {
	switch {
	case cfg.KVURL != "":
		return store.NewUpstashStore(cfg.KVURL, cfg.KVToken, httpClient)
	case cfg.TokenStorageDir != "":
		return store.NewFileStore(cfg.TokenStorageDir)
	default:
		log.Println("No token store configured, rotated refresh tokens are kept in memory only")
		return store.NewMemoryStore()
	}
}

func New(cfg *config.Config) (*Server, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	tokens := auth.NewClient(cfg, NewTokenStore(cfg, httpClient), httpClient)
	activities := api.NewClient(cfg.StravaAPIURL, httpClient)

	stats, err := handler.NewFromConfig(cfg, tokens, activities)
	if err != nil {
		return nil, err
	}

	return &Server{
		Stats:         handler.WithLogging(stats),
		Authenticator: auth.NewAuthenticator(tokens, cfg.SessionSecret),
	}, nil
}

// Routes mounts the stats endpoint and the login flow that seeds it.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/strava", s.Stats)
	mux.HandleFunc("/auth/login", s.Authenticator.LoginHandler)
	mux.HandleFunc("/auth/callback", s.Authenticator.CallbackHandler)
	return mux
}
