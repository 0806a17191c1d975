// Package route turns a decoded activity route into something a client can
// draw: Mapbox static-image URLs or a small vector path.
package route

import (
	"fmt"
	"log"

	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/polyline"
)

// Style is a map colour scheme.
type Style string

const (
	StyleDark  Style = "dark"
	StyleLight Style = "light"
)

// Map is a rendered route. Exactly one of URLs or Vector is set.
type Map struct {
	URLs   map[Style]string `json:"urls,omitempty"`
	Vector *Vector          `json:"vector,omitempty"`
}

// Renderer renders a route. Routes with fewer than two points have no extent
// and yield nil.
type Renderer interface {
	Render(points []polyline.Point) *Map
}

// NewRenderer picks a renderer for the configured MAP_RENDERER. It returns a
// nil Renderer when maps are disabled or the static renderer has no token.
func NewRenderer(kind, mapboxToken string) (Renderer, error) {
	switch kind {
	case config.RendererNone:
		return nil, nil
	case config.RendererVector:
		return NewVectorRenderer(), nil
	case config.RendererStatic:
		if mapboxToken == "" {
			log.Println("MAP_RENDERER=static but MAPBOX_ACCESS_TOKEN is not set, route maps disabled")
			return nil, nil
		}
		return NewStaticRenderer(mapboxToken), nil
	case config.RendererAuto, "":
		if mapboxToken != "" {
			return NewStaticRenderer(mapboxToken), nil
		}
		return NewVectorRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown map renderer %q", kind)
	}
}
