package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	port := fmt.Sprintf(":%s", cfg.Port)
	httpServer := &http.Server{
		Addr:         port,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on http://localhost%s (stats at /api/strava, login at /auth/login)", port)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
