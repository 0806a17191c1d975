package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/arungupta/strava-stats-proxy/internal/polyline"
)

// Pixel is a canvas position, origin top-left.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector is a route projected onto a fixed canvas, ready to draw as SVG.
type Vector struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Path   string  `json:"path"` // SVG path data
	Points []Pixel `json:"points"`
	Start  Pixel   `json:"start"`
	End    Pixel   `json:"end"`
}

// VectorRenderer scales the route's bounding box into the canvas. X and Y are
// scaled independently, so shapes are stretched to fill the space.
type VectorRenderer struct {
	Width   int
	Height  int
	Padding int
}

func NewVectorRenderer() *VectorRenderer {
	return &VectorRenderer{Width: 400, Height: 160, Padding: 16}
}

func (v *VectorRenderer) Render(points []polyline.Point) *Map {
	if len(points) < 2 {
		return nil
	}

	minLng, maxLng := points[0].Lng, points[0].Lng
	minLat, maxLat := points[0].Lat, points[0].Lat
	for _, p := range points[1:] {
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
	}

	width, height, pad := float64(v.Width), float64(v.Height), float64(v.Padding)
	project := func(p polyline.Point) Pixel {
		x, y := width/2, height/2
		if span := maxLng - minLng; span > 0 {
			x = pad + (p.Lng-minLng)/span*(width-2*pad)
		}
		// North is up, so latitude grows towards y=0.
		if span := maxLat - minLat; span > 0 {
			y = pad + (maxLat-p.Lat)/span*(height-2*pad)
		}
		return Pixel{X: round1(x), Y: round1(y)}
	}

	pixels := make([]Pixel, len(points))
	var path strings.Builder
	for i, p := range points {
		px := project(p)
		pixels[i] = px
		if i == 0 {
			path.WriteString("M")
		} else {
			path.WriteString(" L")
		}
		path.WriteString(strconv.FormatFloat(px.X, 'f', 1, 64))
		path.WriteString(",")
		path.WriteString(strconv.FormatFloat(px.Y, 'f', 1, 64))
	}

	return &Map{Vector: &Vector{
		Width:  v.Width,
		Height: v.Height,
		Path:   path.String(),
		Points: pixels,
		Start:  pixels[0],
		End:    pixels[len(pixels)-1],
	}}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
