// Package polyline implements Google's encoded polyline format at 1e5
// precision, as used by Strava's map.summary_polyline.
package polyline

import (
	"fmt"
	"math"
	"strings"
)

const precision = 1e5

// Point is a geographic coordinate in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// DecodeError reports malformed input.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("polyline: %s at offset %d", e.Reason, e.Offset)
}

// Decode parses an encoded polyline. It fails on the first malformed value
// rather than returning a partial route.
func Decode(encoded string) ([]Point, error) {
	var points []Point
	var lat, lng int

	for i := 0; i < len(encoded); {
		dlat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		if next == len(encoded) {
			return nil, &DecodeError{Offset: next, Reason: "latitude without longitude"}
		}
		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}

		lat += dlat
		lng += dlng
		points = append(points, Point{
			Lng: float64(lng) / precision,
			Lat: float64(lat) / precision,
		})
		i = next
	}
	return points, nil
}

// decodeValue reads one zig-zag encoded delta starting at i and returns it with
// the offset of the following value.
func decodeValue(s string, i int) (int, int, error) {
	var result, shift int
	for {
		if i >= len(s) {
			return 0, i, &DecodeError{Offset: i, Reason: "truncated value"}
		}
		c := s[i]
		if c < 63 || c > 126 {
			return 0, i, &DecodeError{Offset: i, Reason: fmt.Sprintf("invalid character %q", c)}
		}
		if shift > 30 {
			return 0, i, &DecodeError{Offset: i, Reason: "value overflows 32 bits"}
		}
		b := int(c) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// Encode is the inverse of Decode.
func Encode(points []Point) string {
	var sb strings.Builder
	var prevLat, prevLng int
	for _, p := range points {
		lat := int(math.Round(p.Lat * precision))
		lng := int(math.Round(p.Lng * precision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}
