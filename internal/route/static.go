package route

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/arungupta/strava-stats-proxy/internal/polyline"
)

const mapboxStylesURL = "https://api.mapbox.com/styles/v1"

// Overlay colours: Strava orange route, green start pin, orange end pin.
const (
	pathColor  = "fc4c02"
	startColor = "22c55e"
	endColor   = "f97316"
)

// StaticRenderer builds Mapbox Static Images API URLs, one per style.
type StaticRenderer struct {
	AccessToken string
	BaseURL     string
	Styles      map[Style]string // our style -> Mapbox style id
	Width       int
	Height      int
	Padding     int
	PathWidth   int
	PathOpacity float64
}

func NewStaticRenderer(accessToken string) *StaticRenderer {
	return &StaticRenderer{
		AccessToken: accessToken,
		BaseURL:     mapboxStylesURL,
		Styles: map[Style]string{
			StyleDark:  "mapbox/dark-v11",
			StyleLight: "mapbox/light-v11",
		},
		Width:       600,
		Height:      240,
		Padding:     30,
		PathWidth:   3,
		PathOpacity: 0.9,
	}
}

func (s *StaticRenderer) Render(points []polyline.Point) *Map {
	if len(points) < 2 || s.AccessToken == "" {
		return nil
	}

	start, end := points[0], points[len(points)-1]
	overlays := fmt.Sprintf("path-%d+%s-%s(%s),%s,%s",
		s.PathWidth, pathColor, strconv.FormatFloat(s.PathOpacity, 'f', -1, 64),
		url.QueryEscape(polyline.Encode(points)),
		pin(startColor, start),
		pin(endColor, end),
	)

	urls := make(map[Style]string, len(s.Styles))
	for style, id := range s.Styles {
		urls[style] = fmt.Sprintf("%s/%s/static/%s/auto/%dx%d@2x?padding=%d&access_token=%s",
			s.BaseURL, id, overlays, s.Width, s.Height, s.Padding, url.QueryEscape(s.AccessToken))
	}
	return &Map{URLs: urls}
}

func pin(color string, p polyline.Point) string {
	return fmt.Sprintf("pin-s+%s(%s,%s)", color,
		strconv.FormatFloat(p.Lng, 'f', -1, 64),
		strconv.FormatFloat(p.Lat, 'f', -1, 64))
}
