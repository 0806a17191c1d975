// Package handler is the serverless entrypoint. The platform routes
// /api/strava to Handler.
package handler

import (
	"log"
	"net/http"
	"sync"

	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/server"
)

var (
	once    sync.Once
	stats   http.Handler
	initErr error
)

func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		srv, err := server.New(cfg)
		if err != nil {
			initErr = err
			return
		}
		stats = srv.Stats
	})

	if initErr != nil {
		log.Printf("Stats handler unavailable: %v", initErr)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Server misconfigured"}`))
		return
	}
	stats.ServeHTTP(w, r)
}
