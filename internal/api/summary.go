package api

import (
	"fmt"
	"math"
	"time"
)

// ActivitySummary is the latest-activity block of a stats response.
type ActivitySummary struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	StartDateLocal      time.Time `json:"start_date_local"`
	Distance            float64   `json:"distance"`    // in meters
	DistanceKm          float64   `json:"distance_km"` // rounded to 0.1 km
	MovingTime          int       `json:"moving_time"` // in seconds
	MovingTimeFormatted string    `json:"moving_time_formatted"`
	ElapsedTime         int       `json:"elapsed_time"`   // in seconds
	Pace                string    `json:"pace,omitempty"` // "M:SS" per km
	AverageSpeed        float64   `json:"average_speed"`
	MaxSpeed            float64   `json:"max_speed"`
	AverageHeartrate    *float64  `json:"average_heartrate"`
	MaxHeartrate        *float64  `json:"max_heartrate"`
	SufferScore         *float64  `json:"suffer_score"`
	TotalElevationGain  float64   `json:"total_elevation_gain"`
	Map                 Map       `json:"map"`
}

// Summarize derives the display summary of an activity.
func Summarize(a Activity) ActivitySummary {
	s := ActivitySummary{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                a.Type,
		StartDateLocal:      a.StartDateLocal,
		Distance:            a.Distance,
		DistanceKm:          RoundKm(a.Distance),
		MovingTime:          a.MovingTime,
		MovingTimeFormatted: FormatDuration(a.MovingTime),
		ElapsedTime:         a.ElapsedTime,
		AverageSpeed:        a.AverageSpeed,
		MaxSpeed:            a.MaxSpeed,
		AverageHeartrate:    a.AverageHeartrate,
		MaxHeartrate:        a.MaxHeartrate,
		SufferScore:         a.SufferScore,
		TotalElevationGain:  a.TotalElevationGain,
		Map:                 a.Map,
	}

	if a.Distance > 0 && a.MovingTime > 0 {
		paceSecPerKm := float64(a.MovingTime) / a.Distance * 1000
		s.Pace = formatPace(paceSecPerKm)
	}
	return s
}

// formatPace formats pace in seconds to "X:XX" format (minutes:seconds).
func formatPace(paceSec float64) string {
	totalSeconds := int(math.Round(paceSec))
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatDuration formats seconds into a human-readable string like "2h 30m" or "45m".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		if minutes > 0 {
			if secs > 0 {
				return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
			}
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		if secs > 0 {
			return fmt.Sprintf("%dh %ds", hours, secs)
		}
		return fmt.Sprintf("%dh", hours)
	}

	if secs > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%dm", minutes)
}
